package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"authmon/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The watched file defaults to auth.log inside the temp directory, the action
// is a dry run and metrics stay disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")
	cfgVal.Monitor.File = filepath.Join(base, "auth.log")
	cfgVal.Action.DryRun = true
	cfgVal.Metrics.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithWatchedFile points the monitor at path.
func WithWatchedFile(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Monitor.File = path
	}
}

// WithLimit sets the failure limit and window.
func WithLimit(maxFailures, windowSeconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Monitor.MaxFailures = maxFailures
		b.cfg.Monitor.WindowSeconds = windowSeconds
	}
}

// WithPollInterval overrides the tick interval.
func WithPollInterval(millis int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Monitor.PollIntervalMillis = millis
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. Each stub appends its arguments to <name>.calls in
// the bin directory.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"systemctl"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			target := filepath.Join(binDir, name)
			script := []byte("#!/bin/sh\necho \"$@\" >> \"" + target + ".calls\"\nexit 0\n")
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
