package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

// ErrInvalid tags every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateMonitor,
		c.validateAction,
		c.validateMetrics,
		c.validateLogging,
	} {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return nil
}

func (c *Config) validateMonitor() error {
	if c.Monitor.File == "" {
		return errors.New("monitor.file must be set (or export AUTHMON_FILE)")
	}
	if c.Monitor.MaxFailures < 1 {
		return fmt.Errorf("monitor.max_failures must be at least 1, got %d", c.Monitor.MaxFailures)
	}
	if c.Monitor.WindowSeconds < 0 {
		return errors.New("monitor.window_seconds must not be negative")
	}
	for _, expr := range c.Monitor.Expressions {
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("monitor.expressions: %q: %w", expr, err)
		}
	}
	return nil
}

func (c *Config) validateAction() error {
	if len(c.Action.Command) == 0 {
		return errors.New("action.command must name a program")
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if !c.Metrics.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Metrics.Bind); err != nil {
		return fmt.Errorf("metrics.bind: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
