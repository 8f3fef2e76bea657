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

// Event kinds.
const (
	KindFailure = "failure"
	KindTrigger = "trigger"
)

// Event is one row of the history table.
type Event struct {
	ID       int64
	RunID    string
	Kind     string
	Line     string
	Rule     string
	Failures int
	Action   string
	Error    string
	At       time.Time
}

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RecordFailure stores a matched log line.
func (s *Store) RecordFailure(ctx context.Context, runID, line, rule string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (run_id, kind, line, rule, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		runID, KindFailure, line, nullableString(rule), formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("insert failure: %w", err)
	}
	return nil
}

// RecordTrigger stores a reached limit and the outcome of its action.
func (s *Store) RecordTrigger(ctx context.Context, runID string, failures int, action, errText string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (run_id, kind, failures, action, error_message, occurred_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, KindTrigger, failures, nullableString(action), nullableString(errText), formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("insert trigger: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first. A non-positive limit
// returns every event.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	query := `SELECT id, run_id, kind, line, rule, failures, action, error_message, occurred_at
        FROM events ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev                          Event
			line, rule, action, errText sql.NullString
			failures                    sql.NullInt64
			occurred                    string
		)
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Kind, &line, &rule, &failures, &action, &errText, &occurred); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Line = line.String
		ev.Rule = rule.String
		ev.Failures = int(failures.Int64)
		ev.Action = action.String
		ev.Error = errText.String
		ev.At, err = time.Parse(time.RFC3339Nano, occurred)
		if err != nil {
			return nil, fmt.Errorf("parse event time %q: %w", occurred, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
