package scan

import (
	"os"
	"path/filepath"
	"testing"

	"sheetforge/internal/safeio"
	"sheetforge/internal/types"
)

func seedDir(t *testing.T, files map[string]string) *safeio.SafeFS {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	fsys, err := safeio.NewSafeFS(root)
	if err != nil {
		t.Fatalf("safefs: %v", err)
	}
	return fsys
}

func TestManifestListsSortedFiles(t *testing.T) {
	fsys := seedDir(t, map[string]string{
		"b.txt":   "two",
		"a.csv":   "h1,h2\n1,2\n",
		".hidden": "skip",
	})
	refs, err := Manifest(fsys)
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("len = %d, want 2 (hidden skipped)", len(refs))
	}
	if refs[0].Name != "a.csv" || refs[1].Name != "b.txt" {
		t.Fatalf("order: %v", refs)
	}
	if refs[0].Size == 0 {
		t.Fatalf("size not filled")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		ref  types.FileRef
		want Kind
	}{
		{types.FileRef{Name: "x.csv", Type: "text/csv"}, KindDelimited},
		{types.FileRef{Name: "x.xlsx", Type: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}, KindSpreadsheet},
		{types.FileRef{Name: "x.json", Type: "application/json"}, KindMarkup},
		{types.FileRef{Name: "x.txt", Type: "text/plain"}, KindText},
		{types.FileRef{Name: "x.pdf", Type: "application/pdf"}, KindBinary},
		{types.FileRef{Name: "x.csv", Type: "application/octet-stream"}, KindDelimited}, // ext fallback
	}
	for _, tc := range cases {
		if got := KindOf(tc.ref); got != tc.want {
			t.Fatalf("KindOf(%s/%s) = %s, want %s", tc.ref.Name, tc.ref.Type, got, tc.want)
		}
	}
}

func TestResolveFillsTypeAndSize(t *testing.T) {
	fsys := seedDir(t, map[string]string{"inv.csv": "a,b\n1,2\n"})
	refs := Resolve(fsys, []types.FileRef{{Name: "inv.csv"}})
	if len(refs) != 1 {
		t.Fatalf("len = %d", len(refs))
	}
	if refs[0].Type == "" || refs[0].Size == 0 {
		t.Fatalf("not resolved: %+v", refs[0])
	}
}
