package safeio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrOutsideRoot is returned when a path resolves outside the jail.
	ErrOutsideRoot = errors.New("safeio: path escapes root")

	errNoRoot = errors.New("safeio: filesystem not configured")
)

// SafeFS reads files relative to a fixed root directory. The extraction
// stage is handed a SafeFS bound to the run's working directory, so source
// paths supplied by callers or by the model cannot reach outside it.
// Symlinks are resolved before the containment check.
type SafeFS struct {
	root string
}

// NewSafeFS jails all future operations to root, which must be an existing
// directory.
func NewSafeFS(root string) (*SafeFS, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("safeio: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if abs, err = filepath.EvalSymlinks(abs); err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("safeio: root %s is not a directory", abs)
	}
	return &SafeFS{root: abs}, nil
}

// Root returns the absolute, symlink-resolved root.
func (s *SafeFS) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// Abs resolves name against the root and returns its absolute path, or an
// error if the resolved path lies outside the root.
func (s *SafeFS) Abs(name string) (string, error) {
	return s.resolve(name)
}

// ReadFile reads the named file under the root.
func (s *SafeFS) ReadFile(name string) ([]byte, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("safeio: %s is a directory", name)
	}
	return os.ReadFile(p)
}

// Stat returns metadata for the named file or directory under the root.
func (s *SafeFS) Stat(name string) (fs.FileInfo, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

// ReadDir lists the named directory under the root.
func (s *SafeFS) ReadDir(name string) ([]fs.DirEntry, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadDir(p)
}

func (s *SafeFS) resolve(name string) (string, error) {
	if s == nil {
		return "", errNoRoot
	}
	if name == "" {
		return "", errors.New("safeio: empty path")
	}
	p := filepath.Clean(name)
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.root, p)
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(s.root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, name)
	}
	return resolved, nil
}
