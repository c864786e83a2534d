// Package store keeps mdlinks state in SQLite: the last-known content of each
// document and a journal of applied edit batches.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the state database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			path    TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			mtime   INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS batches (
			id         INTEGER PRIMARY KEY,
			event_type TEXT NOT NULL,
			subject    TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			applied    INTEGER NOT NULL,
			skipped    INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS edits (
			id          INTEGER PRIMARY KEY,
			batch_id    INTEGER NOT NULL,
			path        TEXT NOT NULL,
			start_line  INTEGER NOT NULL,
			start_char  INTEGER NOT NULL,
			end_line    INTEGER NOT NULL,
			end_char    INTEGER NOT NULL,
			new_text    TEXT NOT NULL,
			requires    TEXT,
			FOREIGN KEY(batch_id) REFERENCES batches(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_edits_batch ON edits(batch_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
