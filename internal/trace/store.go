// Package trace provides a durable journal of resolution events.
//
// The journal is pure observability: it records how questions were
// answered (fresh derivations, cache hits, evictions, failures) per
// evaluation session. It never holds authoritative state - facts live
// only in the in-memory store - and a resolution runs identically with
// journaling disabled.
package trace

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for resolution journals.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db     *sql.DB
	tokens TokenGenerator
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTokenGenerator overrides the session token generator.
// Tests use FixedGenerator for deterministic tokens.
func WithTokenGenerator(g TokenGenerator) StoreOption {
	return func(s *Store) {
		s.tokens = g
	}
}

// Open creates or opens a journal database at the given path.
// Applies required pragmas and the schema automatically; idempotent.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string, opts ...StoreOption) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY on interleaved writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{db: db, tokens: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// BeginSession creates a journaled session with a fresh token.
// The label is free-form diagnostic text (e.g., a CLI invocation tag).
func (s *Store) BeginSession(ctx context.Context, label string) (*Session, error) {
	token := s.tokens.Generate()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, label)
		VALUES (?, ?)
		ON CONFLICT(token) DO NOTHING
	`, token, label)
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}

	return &Session{store: s, token: token}, nil
}
