package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeMonitor(); err != nil {
		return err
	}
	c.normalizeAction()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeMetrics()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMonitor() error {
	if value, ok := os.LookupEnv("AUTHMON_FILE"); ok && strings.TrimSpace(value) != "" {
		c.Monitor.File = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("AUTHMON_MAX_FAILURES"); ok && strings.TrimSpace(value) != "" {
		limit, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("AUTHMON_MAX_FAILURES: %w", err)
		}
		c.Monitor.MaxFailures = limit
	}

	var err error
	c.Monitor.File = strings.TrimSpace(c.Monitor.File)
	if c.Monitor.File, err = expandPath(c.Monitor.File); err != nil {
		return fmt.Errorf("monitor.file: %w", err)
	}
	if c.Monitor.PollIntervalMillis <= 0 {
		c.Monitor.PollIntervalMillis = defaultPollIntervalMillis
	}
	c.Monitor.Patterns = dedupeTrimmed(c.Monitor.Patterns)
	c.Monitor.Expressions = dedupeTrimmed(c.Monitor.Expressions)
	if len(c.Monitor.Patterns) == 0 && len(c.Monitor.Expressions) == 0 {
		c.Monitor.Patterns = append([]string(nil), DefaultPatterns...)
	}
	return nil
}

func (c *Config) normalizeAction() {
	argv := make([]string, 0, len(c.Action.Command))
	for _, arg := range c.Action.Command {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			argv = append(argv, trimmed)
		}
	}
	if len(argv) == 0 {
		argv = append(argv, DefaultCommand...)
	}
	c.Action.Command = argv
	if c.Action.TimeoutSeconds <= 0 {
		c.Action.TimeoutSeconds = defaultActionTimeout
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, defaultHistoryFile)
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeMetrics() {
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	if c.Metrics.Bind == "" {
		c.Metrics.Bind = defaultMetricsBind
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func dedupeTrimmed(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
