package runstore

import (
	"strings"
	"time"
)

// Record is one pipeline run's history entry.
type Record struct {
	RunID        string    `json:"run_id"`
	Fingerprint  string    `json:"fingerprint,omitempty"`
	Request      string    `json:"request,omitempty"`
	Status       string    `json:"status"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	WorkbookPath string    `json:"workbook_path,omitempty"`
	ArtifactURL  string    `json:"artifact_url,omitempty"`
	Warnings     []string  `json:"warnings,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

func normalizeRecord(r Record) Record {
	r.RunID = strings.TrimSpace(r.RunID)
	r.Status = strings.TrimSpace(r.Status)
	if r.Status == "" {
		r.Status = StatusSucceeded
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return r
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, bool) {
	var r Record
	var warnings string
	err := row.Scan(&r.RunID, &r.Fingerprint, &r.Request, &r.Status,
		&r.ErrorKind, &r.WorkbookPath, &r.ArtifactURL, &warnings, &r.CreatedAt)
	if err != nil {
		return Record{}, false
	}
	if warnings != "" {
		r.Warnings = strings.Split(warnings, "\n")
	}
	return normalizeRecord(r), true
}
