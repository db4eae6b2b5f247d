// Package sqlitestore persists the event log in a SQLite table whose integer
// primary key is the sequence id.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/chilledoj/pchat"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS chat_events (
	id        INTEGER PRIMARY KEY,
	username  TEXT    NOT NULL,
	kind      INTEGER NOT NULL,
	message   TEXT    NOT NULL,
	timestamp INTEGER NOT NULL
)`

type Store struct {
	sqlDB *sql.DB
}

func toNanos(value time.Time) int64 {
	return value.UTC().UnixNano()
}

func fromNanos(value int64) time.Time {
	return time.Unix(0, value).UTC()
}

// Open opens a SQLite event store and creates its table.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer; the sequencer already serializes appends
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save inserts one event under its sequence id.
func (s *Store) Save(ctx context.Context, ev pchat.ChatEvent) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if ev.SequenceID <= 0 {
		return 0, fmt.Errorf("sequence id must be positive, got %d", ev.SequenceID)
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO chat_events (id, username, kind, message, timestamp) VALUES (?, ?, ?, ?, ?)`,
		ev.SequenceID,
		ev.Identity,
		int(ev.Kind),
		ev.Body,
		toNanos(ev.Timestamp),
	)
	if err != nil {
		return 0, fmt.Errorf("insert event %d: %w", ev.SequenceID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert event %d: %w", ev.SequenceID, err)
	}
	return id, nil
}

func (s *Store) MaxSequenceID(ctx context.Context) (int64, error) {
	var maxID sql.NullInt64
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT MAX(id) FROM chat_events`).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("select max id: %w", err)
	}
	return maxID.Int64, nil
}

// Recent returns the newest limit events in ascending sequence order.
func (s *Store) Recent(ctx context.Context, limit int) ([]pchat.ChatEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, username, kind, message, timestamp FROM chat_events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select recent events: %w", err)
	}
	defer rows.Close()

	var events []pchat.ChatEvent
	for rows.Next() {
		var (
			ev   pchat.ChatEvent
			kind int
			at   int64
		)
		if err := rows.Scan(&ev.SequenceID, &ev.Identity, &kind, &ev.Body, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = pchat.EventKind(kind)
		ev.Timestamp = fromNanos(at)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	slices.Reverse(events)
	return events, nil
}
