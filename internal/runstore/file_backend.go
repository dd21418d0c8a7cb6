package runstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sheetforge/internal/safeio"
)

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var rows []Record
		if err := json.Unmarshal(b, &rows); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range rows {
			id := strings.TrimSpace(row.RunID)
			if id == "" {
				continue
			}
			if _, seen := s.byID[id]; !seen {
				s.order = append(s.order, id)
			}
			s.byID[id] = normalizeRecord(row)
		}
	})
}

func (s *Store) saveFile() {
	s.ensureLoadedFile()
	s.mu.RLock()
	rows := make([]Record, 0, len(s.byID))
	for _, id := range s.order {
		rows = append(rows, s.byID[id])
	}
	s.mu.RUnlock()

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	_ = safeio.WriteFileAtomic(s.path, b, 0o644)
}

func (s *Store) getFile(runID string) (Record, bool) {
	s.ensureLoadedFile()
	id := strings.TrimSpace(runID)
	if id == "" {
		return Record{}, false
	}
	s.mu.RLock()
	r, ok := s.byID[id]
	s.mu.RUnlock()
	return r, ok
}

func (s *Store) putFile(r Record) {
	s.ensureLoadedFile()
	s.mu.Lock()
	if _, seen := s.byID[r.RunID]; !seen {
		s.order = append(s.order, r.RunID)
	}
	s.byID[r.RunID] = r
	s.mu.Unlock()
}

func (s *Store) listFile(limit int) []Record {
	s.ensureLoadedFile()
	s.mu.RLock()
	rows := make([]Record, 0, len(s.byID))
	for _, id := range s.order {
		rows = append(rows, s.byID[id])
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
