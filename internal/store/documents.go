package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Document is the last-known content of one Markdown file.
type Document struct {
	Path    string
	Content string
	MTime   int64
}

// PutDocument stores content for path, replacing any previous entry.
func (s *Store) PutDocument(ctx context.Context, doc Document) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (path, content, mtime) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   content=excluded.content,
		   mtime=excluded.mtime`,
		doc.Path, doc.Content, doc.MTime,
	)
	return err
}

// GetDocument returns the stored content for path or ErrNotFound.
func (s *Store) GetDocument(ctx context.Context, path string) (Document, error) {
	doc := Document{Path: path}
	row := s.db.QueryRowContext(ctx, "SELECT content, mtime FROM documents WHERE path = ?", path)
	if err := row.Scan(&doc.Content, &doc.MTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// DeleteDocument removes path from the cache. Deleting a missing path is not an error.
func (s *Store) DeleteDocument(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE path = ?", path)
	return err
}

// RenameDocuments moves the entry for before, and every entry beneath it when
// before is a folder, to the corresponding path under after. It returns the
// number of moved entries.
func (s *Store) RenameDocuments(ctx context.Context, before, after string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		"SELECT path FROM documents WHERE path = ? OR path >= ? AND path < ?",
		before, before+"/", before+"0", // '0' sorts right after '/'
	)
	if err != nil {
		return 0, err
	}
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, err
		}
		paths = append(paths, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, old := range paths {
		next := after + strings.TrimPrefix(old, before)
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE path = ?", next); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE documents SET path = ? WHERE path = ?", next, old); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(paths), nil
}
