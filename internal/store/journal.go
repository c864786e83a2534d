package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ryotapoi/mdlinks/internal/core"
)

// Batch is one journaled application of edits.
type Batch struct {
	ID        int64     `json:"id"`
	EventType string    `json:"eventType"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"createdAt"`
	Applied   int       `json:"applied"`
	Skipped   int       `json:"skipped"`
	// Edits is populated by RecordBatch callers; ListBatches leaves it empty.
	Edits []core.Edit `json:"edits,omitempty"`
}

// RecordBatch stores b and its edits in one transaction and returns the new batch ID.
func (s *Store) RecordBatch(ctx context.Context, b Batch) (int64, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO batches (event_type, subject, created_at, applied, skipped)
		 VALUES (?, ?, ?, ?, ?)`,
		b.EventType, b.Subject, b.CreatedAt.Unix(), b.Applied, b.Skipped,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edits (batch_id, path, start_line, start_char, end_line, end_char, new_text, requires)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, e := range b.Edits {
		var requires sql.NullString
		if e.RequiresPathToExist != "" {
			requires = sql.NullString{String: e.RequiresPathToExist, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, e.Path,
			e.Range.Start.Line, e.Range.Start.Character,
			e.Range.End.Line, e.Range.End.Character,
			e.NewText, requires,
		); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListBatches returns up to limit batches, newest first. limit <= 0 means all.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_type, subject, created_at, applied, skipped
		 FROM batches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		var b Batch
		var created int64
		if err := rows.Scan(&b.ID, &b.EventType, &b.Subject, &created, &b.Applied, &b.Skipped); err != nil {
			return nil, err
		}
		b.CreatedAt = time.Unix(created, 0)
		out = append(out, b)
	}
	return out, rows.Err()
}

// BatchEdits returns the edits of batch id in recorded order, or ErrNotFound.
func (s *Store) BatchEdits(ctx context.Context, id int64) ([]core.Edit, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT 1 FROM batches WHERE id = ?", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, start_line, start_char, end_line, end_char, new_text, requires
		 FROM edits WHERE batch_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Edit
	for rows.Next() {
		var e core.Edit
		var requires sql.NullString
		if err := rows.Scan(&e.Path,
			&e.Range.Start.Line, &e.Range.Start.Character,
			&e.Range.End.Line, &e.Range.End.Character,
			&e.NewText, &requires,
		); err != nil {
			return nil, err
		}
		e.RequiresPathToExist = requires.String
		out = append(out, e)
	}
	return out, rows.Err()
}
