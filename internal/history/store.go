package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// maxStderrBytes caps the stderr stored per attempt.
const maxStderrBytes = 16 * 1024

// timeLayout is fixed-width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrClosed is returned by a Store after Close.
var ErrClosed = errors.New("history store closed")

// Store persists render attempts in the render_log table.
type Store struct {
	db *sql.DB

	mu     sync.RWMutex
	closed bool
}

// NewStore wraps an open database that has been bootstrapped by
// storage.OpenSQLite.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record appends one attempt.
func (s *Store) Record(ctx context.Context, a Attempt) error {
	if a.ID == "" {
		return fmt.Errorf("attempt id is empty")
	}
	if a.Status != StatusUpdated && a.Status != StatusFailed {
		return fmt.Errorf("invalid attempt status: %q", a.Status)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	command, err := json.Marshal(a.Command)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}

	stderr := a.Stderr
	if len(stderr) > maxStderrBytes {
		stderr = stderr[:maxStderrBytes]
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO render_log(
  id, started_at, duration_ms, status, failure_kind, exit_code, line, stderr, command, payload_hash
)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, a.ID, a.StartedAt.UTC().Format(timeLayout), a.Duration.Milliseconds(), string(a.Status),
		nullString(a.FailureKind), a.ExitCode, a.Line, nullString(stderr), string(command), nullString(a.PayloadHash))
	if err != nil {
		return fmt.Errorf("insert render_log: %w", err)
	}
	return nil
}

// Recent returns up to limit attempts, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, duration_ms, status, failure_kind, exit_code, line, stderr, command, payload_hash
FROM render_log
ORDER BY started_at DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query render_log: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var (
			a           Attempt
			startedAt   string
			durationMs  int64
			status      string
			failureKind sql.NullString
			exitCode    sql.NullInt64
			line        sql.NullString
			stderr      sql.NullString
			command     string
			payloadHash sql.NullString
		)
		if err := rows.Scan(&a.ID, &startedAt, &durationMs, &status, &failureKind, &exitCode, &line, &stderr, &command, &payloadHash); err != nil {
			return nil, fmt.Errorf("scan render_log: %w", err)
		}

		a.StartedAt, err = time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
		}
		a.Duration = time.Duration(durationMs) * time.Millisecond
		a.Status = Status(status)
		a.FailureKind = failureKind.String
		if exitCode.Valid {
			code := int(exitCode.Int64)
			a.ExitCode = &code
		}
		if line.Valid {
			l := line.String
			a.Line = &l
		}
		a.Stderr = stderr.String
		a.PayloadHash = payloadHash.String
		if err := json.Unmarshal([]byte(command), &a.Command); err != nil {
			return nil, fmt.Errorf("decode command for %s: %w", a.ID, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate render_log: %w", err)
	}
	return out, nil
}

// Prune deletes attempts that started before now-retention.
// A zero retention keeps everything. Returns the number of rows removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}

	cutoff := time.Now().Add(-retention).UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx, "DELETE FROM render_log WHERE started_at < ?;", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune render_log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Close closes the underlying database. Later calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
