package runstore

import (
	"strings"
)

func (s *Store) ensureSchema() error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS pipeline_runs (
  run_id TEXT PRIMARY KEY,
  fingerprint TEXT NOT NULL DEFAULT '',
  request TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'succeeded',
  error_kind TEXT NOT NULL DEFAULT '',
  workbook_path TEXT NOT NULL DEFAULT '',
  artifact_url TEXT NOT NULL DEFAULT '',
  warnings TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_pipeline_runs_fingerprint ON pipeline_runs (fingerprint);
CREATE INDEX IF NOT EXISTS idx_pipeline_runs_created_at ON pipeline_runs (created_at DESC);
`)
	})
	return s.schemaErr
}

func (s *Store) putDB(r Record) {
	if err := s.ensureSchema(); err != nil {
		return
	}
	_, err := s.db.Exec(`
INSERT INTO pipeline_runs (
  run_id, fingerprint, request, status, error_kind, workbook_path, artifact_url, warnings, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (run_id)
DO UPDATE SET status=EXCLUDED.status,
  error_kind=EXCLUDED.error_kind,
  workbook_path=EXCLUDED.workbook_path,
  artifact_url=EXCLUDED.artifact_url,
  warnings=EXCLUDED.warnings`,
		r.RunID, r.Fingerprint, r.Request, r.Status, r.ErrorKind,
		r.WorkbookPath, r.ArtifactURL, strings.Join(r.Warnings, "\n"), r.CreatedAt)
	if err == nil {
		s.recent.Add(r.RunID, r)
	}
}

func (s *Store) getDB(runID string) (Record, bool) {
	id := strings.TrimSpace(runID)
	if id == "" {
		return Record{}, false
	}
	if r, ok := s.recent.Get(id); ok {
		return r, true
	}
	if err := s.ensureSchema(); err != nil {
		return Record{}, false
	}
	row := s.db.QueryRow(`SELECT run_id, fingerprint, request, status, error_kind, workbook_path, artifact_url, warnings, created_at
FROM pipeline_runs WHERE run_id = $1`, id)
	r, ok := scanRecord(row)
	if ok {
		s.recent.Add(id, r)
	}
	return r, ok
}

func (s *Store) listDB(limit int) []Record {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	rows, err := s.db.Query(`SELECT run_id, fingerprint, request, status, error_kind, workbook_path, artifact_url, warnings, created_at
FROM pipeline_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		if r, ok := scanRecord(rows); ok {
			out = append(out, r)
		}
	}
	return out
}
