package action_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"authmon/internal/action"
	"authmon/internal/config"
)

func requireUnixTools(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("command tests need a POSIX shell")
	}
}

func TestCommandRuns(t *testing.T) {
	requireUnixTools(t)
	marker := filepath.Join(t.TempDir(), "tripped")

	cmd := &action.Command{Argv: []string{"sh", "-c", "echo tripped > " + marker}}
	if err := cmd.Run(context.Background(), action.Trigger{Failures: 3, At: time.Now()}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("expected marker file: %v", err)
	}
	if strings.TrimSpace(string(data)) != "tripped" {
		t.Fatalf("unexpected marker content %q", data)
	}
}

func TestCommandReportsFailure(t *testing.T) {
	requireUnixTools(t)
	cmd := &action.Command{Argv: []string{"sh", "-c", "exit 3"}}
	if err := cmd.Run(context.Background(), action.Trigger{}); err == nil {
		t.Fatal("expected non-zero exit to be reported")
	}
}

func TestCommandHonoursTimeout(t *testing.T) {
	requireUnixTools(t)
	cmd := &action.Command{Argv: []string{"sleep", "5"}, Timeout: 50 * time.Millisecond}
	start := time.Now()
	err := cmd.Run(context.Background(), action.Trigger{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Fatal("timeout did not stop the command")
	}
}

func TestCommandRejectsEmptyArgv(t *testing.T) {
	cmd := &action.Command{}
	if err := cmd.Run(context.Background(), action.Trigger{}); !errors.Is(err, action.ErrNoCommand) {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
}

func TestDryRunDoesNothing(t *testing.T) {
	dry := &action.DryRun{Would: "systemctl poweroff"}
	if err := dry.Run(context.Background(), action.Trigger{Failures: 3}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dry.String() != "dry-run" {
		t.Fatalf("unexpected name %q", dry.String())
	}
}

func TestFromConfigSelectsAction(t *testing.T) {
	cfg := config.Default()
	cfg.Action.Command = []string{"logger", "tripped"}

	live, ok := action.FromConfig(&cfg, nil).(*action.Command)
	if !ok {
		t.Fatal("expected Command for live configuration")
	}
	if live.String() != "logger tripped" || live.Timeout != cfg.ActionTimeout() {
		t.Fatalf("unexpected command %q timeout %s", live.String(), live.Timeout)
	}

	cfg.Action.DryRun = true
	dry, ok := action.FromConfig(&cfg, nil).(*action.DryRun)
	if !ok {
		t.Fatal("expected DryRun when dry_run is set")
	}
	if dry.Would != "logger tripped" {
		t.Fatalf("unexpected dry run target %q", dry.Would)
	}
}
