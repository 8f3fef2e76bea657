package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Monitor describes the watched log and what counts as a failure.
type Monitor struct {
	File               string   `toml:"file"`
	PollIntervalMillis int      `toml:"poll_interval_ms"`
	MaxFailures        int      `toml:"max_failures"`
	WindowSeconds      int      `toml:"window_seconds"`
	Patterns           []string `toml:"patterns"`
	Expressions        []string `toml:"expressions"`
}

// Action contains the response run once the failure limit is reached.
type Action struct {
	Command        []string `toml:"command"`
	DryRun         bool     `toml:"dry_run"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// History contains configuration for the failure/trigger database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: <state_dir>/history.db
}

// Metrics contains configuration for the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for authmon.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - Monitor: watched file, poll cadence, failure limit and patterns
//   - Action: command run when the limit is reached
//   - History: SQLite record of failures and triggers
//   - Metrics: optional Prometheus endpoint
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Monitor Monitor `toml:"monitor"`
	Action  Action  `toml:"action"`
	History History `toml:"history"`
	Metrics Metrics `toml:"metrics"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/authmon/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("authmon.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The directory of
// the watched file is never created: it belongs to the system logger.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.History.Enabled {
		if dir := filepath.Dir(c.History.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create history directory %q: %w", dir, err)
			}
		}
	}
	return nil
}

// PollInterval returns the delay between two ticks of the monitor loop.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Monitor.PollIntervalMillis) * time.Millisecond
}

// Window returns the failure counting window; zero means unbounded.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Monitor.WindowSeconds) * time.Second
}

// ActionTimeout bounds how long the response command may run.
func (c *Config) ActionTimeout() time.Duration {
	return time.Duration(c.Action.TimeoutSeconds) * time.Second
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "authmon.lock")
}

// PIDPath returns the pid file written by the running monitor.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "authmon.pid")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
