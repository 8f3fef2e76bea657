package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"authmon/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "authmon")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.LogDir != filepath.Join(wantState, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.History.Path != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}
	if cfg.Monitor.File != "/var/log/auth.log" {
		t.Fatalf("unexpected monitor file: %q", cfg.Monitor.File)
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.Monitor.MaxFailures != 3 {
		t.Fatalf("unexpected max failures: %d", cfg.Monitor.MaxFailures)
	}
	if cfg.Window() != 0 {
		t.Fatalf("expected unbounded window, got %s", cfg.Window())
	}
	if strings.Join(cfg.Action.Command, " ") != "systemctl poweroff" {
		t.Fatalf("unexpected action command: %v", cfg.Action.Command)
	}
	if cfg.Metrics.Enabled {
		t.Fatal("expected metrics disabled by default")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "authmon.toml")

	type payload struct {
		Monitor struct {
			File          string   `toml:"file"`
			MaxFailures   int      `toml:"max_failures"`
			WindowSeconds int      `toml:"window_seconds"`
			Patterns      []string `toml:"patterns"`
		} `toml:"monitor"`
		Action struct {
			Command []string `toml:"command"`
			DryRun  bool     `toml:"dry_run"`
		} `toml:"action"`
		Paths struct {
			StateDir string `toml:"state_dir"`
		} `toml:"paths"`
	}
	custom := payload{}
	custom.Monitor.File = filepath.Join(tempDir, "secure")
	custom.Monitor.MaxFailures = 5
	custom.Monitor.WindowSeconds = 60
	custom.Monitor.Patterns = []string{" sshd failure ", "sshd failure", ""}
	custom.Action.Command = []string{"logger", " ", "tripped"}
	custom.Action.DryRun = true
	custom.Paths.StateDir = filepath.Join(tempDir, "state")

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Monitor.File != custom.Monitor.File {
		t.Fatalf("unexpected file: %q", cfg.Monitor.File)
	}
	if cfg.Monitor.MaxFailures != 5 || cfg.Window() != time.Minute {
		t.Fatalf("unexpected limit %d window %s", cfg.Monitor.MaxFailures, cfg.Window())
	}
	if len(cfg.Monitor.Patterns) != 1 || cfg.Monitor.Patterns[0] != "sshd failure" {
		t.Fatalf("expected patterns to be trimmed and deduplicated, got %q", cfg.Monitor.Patterns)
	}
	if strings.Join(cfg.Action.Command, "|") != "logger|tripped" {
		t.Fatalf("expected blank args dropped, got %q", cfg.Action.Command)
	}
	if !cfg.Action.DryRun {
		t.Fatal("expected dry run")
	}
	if cfg.Paths.LogDir == filepath.Join(custom.Paths.StateDir, "logs") {
		t.Fatal("log dir keeps its own default when only state_dir is set")
	}
	if cfg.History.Path != filepath.Join(custom.Paths.StateDir, "history.db") {
		t.Fatalf("history path should follow state dir, got %q", cfg.History.Path)
	}
	if cfg.LockPath() != filepath.Join(custom.Paths.StateDir, "authmon.lock") {
		t.Fatalf("unexpected lock path %q", cfg.LockPath())
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("AUTHMON_FILE", "/var/log/secure")
	t.Setenv("AUTHMON_MAX_FAILURES", "7")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Monitor.File != "/var/log/secure" {
		t.Fatalf("expected file from env, got %q", cfg.Monitor.File)
	}
	if cfg.Monitor.MaxFailures != 7 {
		t.Fatalf("expected limit from env, got %d", cfg.Monitor.MaxFailures)
	}
}

func TestLoadRejectsBadEnvironmentLimit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("AUTHMON_MAX_FAILURES", "many")

	if _, _, _, err := config.Load(""); err == nil {
		t.Fatal("expected error for non-numeric AUTHMON_MAX_FAILURES")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authmon.toml")
	if err := os.WriteFile(path, []byte("[monitor]\nfiel = \"/tmp/x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero limit", func(c *config.Config) { c.Monitor.MaxFailures = 0 }},
		{"negative window", func(c *config.Config) { c.Monitor.WindowSeconds = -1 }},
		{"empty file", func(c *config.Config) { c.Monitor.File = "" }},
		{"bad expression", func(c *config.Config) { c.Monitor.Expressions = []string{"(unclosed"} }},
		{"empty command", func(c *config.Config) { c.Action.Command = nil }},
		{"bad metrics bind", func(c *config.Config) {
			c.Metrics.Enabled = true
			c.Metrics.Bind = "no-port"
		}},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, config.ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if len(cfg.Monitor.Patterns) != len(config.DefaultPatterns) {
		t.Fatalf("unexpected sample patterns: %v", cfg.Monitor.Patterns)
	}
}
