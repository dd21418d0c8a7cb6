package scan

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"sheetforge/internal/safeio"
	"sheetforge/internal/types"
)

// Kind buckets a source file by how the extraction stage handles it.
type Kind string

const (
	KindDelimited   Kind = "delimited"   // csv, tsv
	KindSpreadsheet Kind = "spreadsheet" // xlsx, xls
	KindMarkup      Kind = "markup"      // json, xml, html, md
	KindText        Kind = "text"        // plain text
	KindBinary      Kind = "binary"      // pdf, images, anything else
)

// Manifest lists every file in the working directory as a FileRef with a
// detected MIME type and size. Entries are sorted by path for determinism.
func Manifest(fsys *safeio.SafeFS) ([]types.FileRef, error) {
	entries, err := fsys.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var out []types.FileRef
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, types.FileRef{
			Name: e.Name(),
			Path: e.Name(),
			Type: DetectType(fsys, e.Name()),
			Size: info.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Resolve fills in missing Type/Size on caller-supplied refs.
func Resolve(fsys *safeio.SafeFS, files []types.FileRef) []types.FileRef {
	out := make([]types.FileRef, 0, len(files))
	for _, f := range files {
		if f.Path == "" {
			f.Path = f.Name
		}
		if f.Type == "" {
			f.Type = DetectType(fsys, f.Path)
		}
		if f.Size == 0 {
			if info, err := fsys.Stat(f.Path); err == nil {
				f.Size = info.Size()
			}
		}
		out = append(out, f)
	}
	return out
}

// DetectType sniffs the MIME type from content, falling back to the
// extension when the file cannot be read.
func DetectType(fsys *safeio.SafeFS, path string) string {
	if abs, err := fsys.Abs(path); err == nil {
		if mtype, err := mimetype.DetectFile(abs); err == nil {
			return mtype.String()
		}
	}
	return typeFromExt(path)
}

// KindOf maps a FileRef to its handling bucket.
func KindOf(f types.FileRef) Kind {
	mime := strings.ToLower(f.Type)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	switch {
	case strings.Contains(mime, "csv") || strings.Contains(mime, "tab-separated"):
		return KindDelimited
	case strings.Contains(mime, "spreadsheet") || strings.Contains(mime, "ms-excel"):
		return KindSpreadsheet
	case strings.Contains(mime, "json") || strings.Contains(mime, "xml") ||
		strings.Contains(mime, "html") || strings.Contains(mime, "markdown"):
		return KindMarkup
	case strings.HasPrefix(mime, "text/"):
		return KindText
	}
	// Extension beats a generic sniff result for text-like formats.
	switch strings.ToLower(filepath.Ext(f.ID())) {
	case ".csv", ".tsv":
		return KindDelimited
	case ".xlsx", ".xls":
		return KindSpreadsheet
	case ".json", ".xml", ".html", ".htm", ".md":
		return KindMarkup
	case ".txt", ".log":
		return KindText
	}
	return KindBinary
}

func typeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return "text/plain"
	case ".csv":
		return "text/csv"
	case ".tsv":
		return "text/tab-separated-values"
	case ".md":
		return "text/markdown"
	case ".json":
		return "application/json"
	case ".xml":
		return "application/xml"
	case ".html", ".htm":
		return "text/html"
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
