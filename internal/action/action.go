// Package action runs the response configured for a reached failure limit.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"authmon/internal/config"
	"authmon/internal/logging"
)

// Trigger describes the failures that reached the configured limit.
type Trigger struct {
	Failures int
	Lines    []string
	At       time.Time
}

// Action responds to a trigger.
type Action interface {
	Run(ctx context.Context, trigger Trigger) error
	String() string
}

// ErrNoCommand is returned when a Command has no program.
var ErrNoCommand = errors.New("action command is empty")

// Command executes an external program, by default `systemctl poweroff`.
type Command struct {
	Argv    []string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Run executes the command and waits for it, bounded by Timeout when set.
func (c *Command) Run(ctx context.Context, trigger Trigger) error {
	if len(c.Argv) == 0 || strings.TrimSpace(c.Argv[0]) == "" {
		return ErrNoCommand
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	logger := c.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Warn("failure limit reached, running action",
		logging.String(logging.FieldEventType, "action_start"),
		logging.String("command", c.String()),
		logging.Int("failures", trigger.Failures),
	)

	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	output, err := cmd.CombinedOutput()
	if text := strings.TrimSpace(string(output)); text != "" {
		logger.Info("action output",
			logging.String("command", c.String()),
			logging.String("output", text),
		)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("run %s: %w", c.String(), ctxErr)
		}
		return fmt.Errorf("run %s: %w", c.String(), err)
	}
	return nil
}

func (c *Command) String() string {
	return strings.Join(c.Argv, " ")
}

// DryRun records the trigger without side effects.
type DryRun struct {
	Logger *slog.Logger
	// Would names the command that a live run would execute.
	Would string
}

func (d *DryRun) Run(_ context.Context, trigger Trigger) error {
	logger := d.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Warn("failure limit reached (dry run)",
		logging.String(logging.FieldEventType, "action_dry_run"),
		logging.String("command", d.Would),
		logging.Int("failures", trigger.Failures),
		logging.Int("lines", len(trigger.Lines)),
	)
	return nil
}

func (d *DryRun) String() string {
	return "dry-run"
}

// FromConfig returns the action selected by cfg.Action.
func FromConfig(cfg *config.Config, logger *slog.Logger) Action {
	logger = logging.NewComponentLogger(logger, "action")
	argv := append([]string(nil), cfg.Action.Command...)
	if cfg.Action.DryRun {
		return &DryRun{Logger: logger, Would: strings.Join(argv, " ")}
	}
	return &Command{Argv: argv, Timeout: cfg.ActionTimeout(), Logger: logger}
}
