package artifact

import (
	"context"
	"errors"
	"path"
	"strings"
)

// Store persists run outputs (workbooks, extracted-data JSON) outside the
// working directory, keyed by run ID and file name.
type Store interface {
	Put(ctx context.Context, runID, name string, content []byte) error
	Get(ctx context.Context, runID, name string) ([]byte, error)
	GetURL(ctx context.Context, runID, name string) (string, error)
	List(ctx context.Context, runID string) ([]string, error)
}

var ErrNotFound = errors.New("artifact not found")

func validateKey(runID, name string) error {
	if strings.TrimSpace(runID) == "" {
		return errors.New("run_id is required")
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	return nil
}

func objectKey(runID, name string) string {
	return strings.TrimSpace(runID) + "/" + strings.TrimLeft(strings.TrimSpace(name), "/")
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
