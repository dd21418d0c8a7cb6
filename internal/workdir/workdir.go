package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"sheetforge/internal/safeio"
)

// Dir is the per-run working directory. One pipeline run owns it exclusively
// for the run's duration; Cleanup is safe once the run has terminated and all
// in-flight writes have completed.
type Dir struct {
	id   string
	root string
	fs   *safeio.SafeFS

	mu      sync.Mutex
	removed bool
	owned   bool // created by us, safe to delete on Cleanup
}

// New creates a fresh working directory under base (os.TempDir when empty).
func New(base string) (*Dir, error) {
	if base == "" {
		base = os.TempDir()
	}
	id := uuid.NewString()
	root := filepath.Join(base, "run-"+id)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("workdir: create %s: %w", root, err)
	}
	fsys, err := safeio.NewSafeFS(root)
	if err != nil {
		os.RemoveAll(root)
		return nil, err
	}
	return &Dir{id: id, root: fsys.Root(), fs: fsys, owned: true}, nil
}

// Attach wraps a caller-supplied directory that already holds the source
// files. Cleanup leaves attached directories in place.
func Attach(root string) (*Dir, error) {
	fsys, err := safeio.NewSafeFS(root)
	if err != nil {
		return nil, err
	}
	return &Dir{id: uuid.NewString(), root: fsys.Root(), fs: fsys}, nil
}

func (d *Dir) ID() string         { return d.id }
func (d *Dir) Root() string       { return d.root }
func (d *Dir) FS() *safeio.SafeFS { return d.fs }

// Path joins parts under the working directory root.
func (d *Dir) Path(parts ...string) string {
	return filepath.Join(append([]string{d.root}, parts...)...)
}

// Cleanup removes an owned directory and everything under it. Idempotent.
func (d *Dir) Cleanup() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.removed || !d.owned {
		return nil
	}
	d.removed = true
	return os.RemoveAll(d.root)
}
