package workdir

import (
	"os"
	"testing"
)

func TestNewAndCleanup(t *testing.T) {
	d, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := os.Stat(d.Root()); err != nil {
		t.Fatalf("root missing: %v", err)
	}
	if err := os.WriteFile(d.Path("a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := d.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(d.Root()); !os.IsNotExist(err) {
		t.Fatalf("root survived cleanup")
	}
	// Idempotent.
	if err := d.Cleanup(); err != nil {
		t.Fatalf("second cleanup: %v", err)
	}
}

func TestAttachNeverDeletes(t *testing.T) {
	root := t.TempDir()
	d, err := Attach(root)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := d.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("attached dir was deleted: %v", err)
	}
}
