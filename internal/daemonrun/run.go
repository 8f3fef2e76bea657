package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"authmon/internal/action"
	"authmon/internal/config"
	"authmon/internal/history"
	"authmon/internal/logging"
	"authmon/internal/metrics"
	"authmon/internal/monitor"
	"authmon/internal/tailer"
)

// ErrAlreadyRunning is returned when another process holds the state lock.
var ErrAlreadyRunning = errors.New("another authmon instance is already running")

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	// Logger replaces the configured logger when set.
	Logger *slog.Logger
	// Action replaces the configured action when set.
	Action action.Action
}

// Run watches the configured auth log until ctx is cancelled or the process
// receives SIGINT, SIGTERM or SIGABRT.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGABRT)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = logging.NewFromConfig(cfg, opts.LogLevel)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release lock", logging.Error(err))
		}
	}()

	runID := uuid.NewString()
	logger = logger.With(logging.String(logging.FieldRunID, runID))

	deps := monitor.Deps{
		Action:  opts.Action,
		Logger:  logger,
		RunID:   runID,
		Metrics: metrics.New(),
	}
	if deps.Action == nil {
		deps.Action = action.FromConfig(cfg, logger)
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Error("open history store", logging.Error(err))
			return err
		}
		defer store.Close()
		deps.History = store
	}

	if cfg.Metrics.Enabled {
		go func() {
			if err := deps.Metrics.Serve(signalCtx, cfg.Metrics.Bind, logging.NewComponentLogger(logger, "metrics")); err != nil {
				logger.Warn("metrics server stopped",
					logging.String(logging.FieldEventType, "metrics_failed"),
					logging.Error(err),
				)
			}
		}()
	}

	mon, err := monitor.New(cfg, deps)
	if err != nil {
		return fmt.Errorf("create monitor: %w", err)
	}
	defer mon.Close()

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logger.Info("authmon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String(logging.FieldPath, cfg.Monitor.File),
		logging.Int("max_failures", cfg.Monitor.MaxFailures),
		logging.Duration("window", cfg.Window()),
		logging.Duration("interval", cfg.PollInterval()),
		logging.String("action", deps.Action.String()),
	)

	loop(signalCtx, mon, cfg.PollInterval(), logger)

	logger.Info("authmon shutting down", logging.String(logging.FieldEventType, "daemon_stopped"))
	return nil
}

func loop(ctx context.Context, mon *monitor.Monitor, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		tick(ctx, mon, logger)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func tick(ctx context.Context, mon *monitor.Monitor, logger *slog.Logger) {
	err := mon.Update(ctx)
	if err == nil {
		return
	}
	if errors.Is(err, tailer.ErrIO) {
		logger.Error("cannot read watched file",
			logging.String(logging.FieldEventType, "poll_failed"),
			logging.Error(err),
		)
		return
	}
	logger.Warn("update failed",
		logging.String(logging.FieldEventType, "update_failed"),
		logging.Error(err),
	)
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
