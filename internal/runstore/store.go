package runstore

import (
	"database/sql"
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store keeps run history. It runs either on a JSON file (the default) or on
// Postgres when a DSN is supplied. Operations are best effort: history never
// fails a run.
type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]Record
	order    []string

	schemaOnce sync.Once
	schemaErr  error

	recent *lru.Cache[string, Record]
}

func New(path string) *Store {
	return &Store{
		path: path,
		byID: make(map[string]Record),
	}
}

func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	recent, err := lru.New[string, Record](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, recent: recent}, nil
}

// NewFromEnv picks Postgres when RUN_STORE_PG_DSN is set and reachable,
// otherwise the file backend at path.
func NewFromEnv(path string) *Store {
	dsn := strings.TrimSpace(os.Getenv("RUN_STORE_PG_DSN"))
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

func (s *Store) Put(r Record) {
	if s == nil {
		return
	}
	r = normalizeRecord(r)
	if r.RunID == "" {
		return
	}
	if s.db != nil {
		s.putDB(r)
		return
	}
	s.putFile(r)
}

func (s *Store) Get(runID string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	if s.db != nil {
		return s.getDB(runID)
	}
	return s.getFile(runID)
}

// List returns up to limit records, newest first.
func (s *Store) List(limit int) []Record {
	if s == nil {
		return nil
	}
	if limit <= 0 {
		limit = 50
	}
	if s.db != nil {
		return s.listDB(limit)
	}
	return s.listFile(limit)
}

// Save flushes the file backend. A no-op on Postgres.
func (s *Store) Save() {
	if s == nil || s.db != nil {
		return
	}
	s.saveFile()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
