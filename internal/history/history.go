// Package history is an optional, write-only audit trail of session
// lifecycle events, persisted to a local SQLite database. spec.md is
// silent on whether sessions survive process restart; by design they
// do not (the registry stays purely in-memory). This package adds a
// purely additive record of what happened, grounded on
// g960059-agtmux's internal/db package (pure-Go modernc.org/sqlite
// driver, versioned migrations applied in a transaction on Open).
//
// No remote operation reads from this store: a write failure here is
// logged and dropped, never surfaced to a caller, matching the
// propagation policy for observability paths.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store appends session lifecycle events to a SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) the database at path and applies pending
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends one lifecycle event. Errors are the caller's to log
// and drop; Record never blocks the calling goroutine for long since
// SQLite writes here are local and WAL-journaled.
func (s *Store) Record(ctx context.Context, terminalID, kind, command string, exitCode *int, signal string) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO session_events(terminal_id, kind, command, exit_code, signal, occurred_at)
VALUES (?, ?, ?, ?, ?, ?)
`, terminalID, kind, command, exitCode, nullIfEmpty(signal), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record session event: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
