package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"authmon/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	lines := []string{
		"sshd[1]: Failed password for root from 192.0.2.1",
		"sudo: pam_unix(sudo:auth): authentication failure",
		"su[2]: FAILED SU (to root) bob on pts/0",
	}
	for i, line := range lines {
		if err := store.RecordFailure(ctx, "run-1", line, "rule", base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	if err := store.RecordTrigger(ctx, "run-1", 3, "systemctl poweroff", "", base.Add(3*time.Second)); err != nil {
		t.Fatalf("RecordTrigger: %v", err)
	}

	events, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	trigger := events[0]
	if trigger.Kind != history.KindTrigger || trigger.Failures != 3 || trigger.Action != "systemctl poweroff" || trigger.Error != "" {
		t.Fatalf("unexpected trigger event %+v", trigger)
	}
	if !trigger.At.Equal(base.Add(3 * time.Second)) {
		t.Fatalf("unexpected trigger time %s", trigger.At)
	}
	if events[3].Line != lines[0] || events[3].Kind != history.KindFailure || events[3].RunID != "run-1" {
		t.Fatalf("unexpected oldest event %+v", events[3])
	}

	limited, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent limited: %v", err)
	}
	if len(limited) != 2 || limited[1].Line != lines[2] {
		t.Fatalf("unexpected limited events %+v", limited)
	}
}

func TestRecordTriggerKeepsError(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.RecordTrigger(ctx, "run-2", 5, "systemctl poweroff", "exit status 1", time.Now()); err != nil {
		t.Fatalf("RecordTrigger: %v", err)
	}
	events, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if events[0].Error != "exit status 1" {
		t.Fatalf("expected error text, got %+v", events[0])
	}
}

func TestReopenKeepsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.RecordFailure(context.Background(), "run-3", "Failed password", "", time.Now()); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	events, err := reopened.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 1 || events[0].Rule != "" {
		t.Fatalf("unexpected events after reopen %+v", events)
	}
}

func TestOpenRejectsOtherSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
