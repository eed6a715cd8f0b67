// Package history keeps a log of the questions the bot has answered.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/aiqa/internal/db"
)

// Status is the outcome of a request.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Request is one handled question.
type Request struct {
	ID        string
	MessageID int64
	GroupID   int64
	Mode      string
	Question  string
	Status    Status
	Error     string
	Latency   time.Duration
	CreatedAt time.Time
}

// Store provides access to the request log.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record inserts r. If r.ID is empty a UUID is generated.
func (s *Store) Record(ctx context.Context, r Request) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests (
			id, message_id, group_id, mode, question, status, error, latency_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.MessageID,
		r.GroupID,
		r.Mode,
		r.Question,
		string(r.Status),
		r.Error,
		r.Latency.Milliseconds(),
		r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting request: %w", err)
	}
	return nil
}

// Recent returns up to limit requests, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Request, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, group_id, mode, question, status, error, latency_ms, created_at
		FROM requests ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying requests: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var (
			r       Request
			status  string
			latency int64
			created sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.MessageID, &r.GroupID, &r.Mode, &r.Question,
			&status, &r.Error, &latency, &created); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		r.Status = Status(status)
		r.Latency = time.Duration(latency) * time.Millisecond
		if created.Valid {
			r.CreatedAt = created.Time
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountSince returns how many requests were recorded at or after t.
func (s *Store) CountSince(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM requests WHERE created_at >= ?`, t.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting requests: %w", err)
	}
	return n, nil
}
