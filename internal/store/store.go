package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Memory is the path of a private in-memory store.
const Memory = ":memory:"

type migration struct {
	version int
	name    string
	stmt    string
}

// migrations run in version order against databases whose user_version is
// below their version. schema.sql already holds the result of every
// migration, so each statement must be a no-op on a fresh database.
var migrations = []migration{
	{1, "plans seq index", `CREATE INDEX IF NOT EXISTS idx_plans_seq ON plans(seq)`},
}

// SchemaVersion is the user_version of a fully migrated store.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Store is the SQLite database behind schema checks and the plan cache.
// A file-backed store runs in WAL mode; a Memory store is scratch space for
// preparing generated SQL.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the store at path and brings its schema up to
// date. Opening an existing store again is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// Every connection to ":memory:" is a separate database, and SQLite has
	// a single writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("connect %s: %w", s.path, err)
	}
	for _, pragma := range s.pragmas() {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return s.migrate()
}

func (s *Store) pragmas() []string {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if s.InMemory() {
		return pragmas
	}
	return append(pragmas,
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	)
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := s.db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("migration %d: set user_version: %w", m.version, err)
		}
	}
	return nil
}

// InMemory reports whether the store lives only in memory.
func (s *Store) InMemory() bool {
	return s.path == Memory
}

// Close closes the database. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the database handle for tests and ad hoc statements.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Query runs generated SQL with its bound parameters. The caller closes the
// rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// pragma reads a pragma's current value.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}
