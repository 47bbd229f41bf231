package event

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteDLQ persists handler failures to SQLite.
// It is suitable for single-process production use.
type SQLiteDLQ struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

var _ DeadLetterQueue = (*SQLiteDLQ)(nil)

// NewSQLiteDLQ opens (or creates) a dead letter queue at path.
// Use ":memory:" for testing.
func NewSQLiteDLQ(path string) (*SQLiteDLQ, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS dead_letters (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL,
			handler TEXT NOT NULL,
			event_type TEXT NOT NULL,
			event_source TEXT NOT NULL,
			correlation_id TEXT NOT NULL,
			event_data BLOB,
			error_message TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			failed_at TEXT NOT NULL,
			UNIQUE (event_id, handler)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteDLQ{db: db}, nil
}

// Enqueue implements DeadLetterQueue.
func (s *SQLiteDLQ) Enqueue(ctx context.Context, failed *FailedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dead_letters (
			event_id, handler, event_type, event_source, correlation_id,
			event_data, error_message, attempts, failed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id, handler) DO UPDATE SET
			event_data = excluded.event_data,
			error_message = excluded.error_message,
			attempts = excluded.attempts,
			failed_at = excluded.failed_at
	`, failed.EventID, failed.Handler, failed.EventType, failed.EventSource,
		failed.CorrelationID, failed.EventData, failed.ErrorMessage,
		failed.Attempts, failed.FailedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("enqueue failed event: %w", err)
	}
	return nil
}

// Dequeue implements DeadLetterQueue.
func (s *SQLiteDLQ) Dequeue(ctx context.Context, limit int) ([]*FailedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if limit <= 0 {
		limit = -1 // no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, handler, event_type, event_source, correlation_id,
			event_data, error_message, attempts, failed_at
		FROM dead_letters
		ORDER BY seq
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("dequeue failed events: %w", err)
	}
	defer rows.Close()

	var out []*FailedEvent
	for rows.Next() {
		var f FailedEvent
		var failedAt string
		if err := rows.Scan(&f.EventID, &f.Handler, &f.EventType, &f.EventSource,
			&f.CorrelationID, &f.EventData, &f.ErrorMessage, &f.Attempts, &failedAt); err != nil {
			return nil, fmt.Errorf("scan failed event: %w", err)
		}
		f.FailedAt, _ = time.Parse(time.RFC3339Nano, failedAt)
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failed events: %w", err)
	}
	return out, nil
}

// Acknowledge implements DeadLetterQueue.
func (s *SQLiteDLQ) Acknowledge(ctx context.Context, eventID, handler string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM dead_letters WHERE event_id = ? AND handler = ?`,
		eventID, handler); err != nil {
		return fmt.Errorf("acknowledge failed event: %w", err)
	}
	return nil
}

// Count implements DeadLetterQueue.
func (s *SQLiteDLQ) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letters`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count failed events: %w", err)
	}
	return n, nil
}

// Close closes the database. Further calls return ErrStoreClosed.
func (s *SQLiteDLQ) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
