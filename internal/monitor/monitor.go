// Package monitor turns tailed auth log lines into failure counts and runs the
// configured action once the limit is reached.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"authmon/internal/action"
	"authmon/internal/config"
	"authmon/internal/logging"
	"authmon/internal/matcher"
	"authmon/internal/metrics"
	"authmon/internal/tailer"
)

// Recorder persists monitor events. *history.Store satisfies it.
type Recorder interface {
	RecordFailure(ctx context.Context, runID, line, rule string, at time.Time) error
	RecordTrigger(ctx context.Context, runID string, failures int, action, errText string, at time.Time) error
}

// Deps carries collaborators. Only Action is required.
type Deps struct {
	Action  action.Action
	History Recorder
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	RunID   string
	Now     func() time.Time
}

// Monitor owns one tailer and the failure bookkeeping for it.
type Monitor struct {
	tail    *tailer.Tailer
	match   *matcher.Matcher
	counter Counter
	act     action.Action
	history Recorder
	metrics *metrics.Metrics
	logger  *slog.Logger
	runID   string
	now     func() time.Time

	lines []string
}

// New builds a monitor for cfg.Monitor.File.
func New(cfg *config.Config, deps Deps) (*Monitor, error) {
	if cfg == nil {
		return nil, errors.New("monitor: config is nil")
	}
	if deps.Action == nil {
		return nil, errors.New("monitor: action is required")
	}
	m, err := matcher.New(cfg.Monitor.Patterns, cfg.Monitor.Expressions)
	if err != nil {
		return nil, fmt.Errorf("build matcher: %w", err)
	}

	logger := logging.NewComponentLogger(deps.Logger, "monitor")
	mon := &Monitor{
		match:   m,
		counter: Counter{Limit: cfg.Monitor.MaxFailures, Window: cfg.Window()},
		act:     deps.Action,
		history: deps.History,
		metrics: deps.Metrics,
		logger:  logger,
		runID:   deps.RunID,
		now:     deps.Now,
	}
	if mon.now == nil {
		mon.now = time.Now
	}

	opts := []tailer.Option{
		tailer.WithLogger(logging.NewComponentLogger(deps.Logger, "tailer")),
		tailer.WithResetHook(func(reason tailer.ResetReason) {
			mon.metrics.TailReset(string(reason))
		}),
	}
	tail, err := tailer.New(cfg.Monitor.File, opts...)
	if err != nil {
		return nil, err
	}
	mon.tail = tail
	return mon, nil
}

// Update performs one poll and handles every line it delivers. Errors from
// the tailer are returned wrapped; action failures are logged, recorded and
// returned after the poll completes.
func (m *Monitor) Update(ctx context.Context) error {
	var actionErrs []error
	err := m.tail.Poll(func(line string) {
		if err := m.handle(ctx, line); err != nil {
			actionErrs = append(actionErrs, err)
		}
	})
	if err != nil {
		m.metrics.PollFailed()
		err = fmt.Errorf("poll %s: %w", m.tail.Path(), err)
	}
	return errors.Join(append([]error{err}, actionErrs...)...)
}

// Pending reports the failures currently counted toward the limit.
func (m *Monitor) Pending() int {
	return m.counter.Count(m.now())
}

// Close releases the watched file.
func (m *Monitor) Close() error {
	return m.tail.Close()
}

func (m *Monitor) handle(ctx context.Context, line string) error {
	m.metrics.LineRead()
	text := strings.TrimRight(line, "\r\n")
	rule, ok := m.match.Match(text)
	if !ok {
		return nil
	}
	at := m.now()
	m.metrics.FailureSeen()

	count, reached := m.counter.Add(at)
	m.lines = append(m.lines, text)
	if len(m.lines) > count {
		m.lines = append(m.lines[:0], m.lines[len(m.lines)-count:]...)
	}
	m.logger.Info("authentication failure",
		logging.String(logging.FieldEventType, "failure"),
		logging.String("rule", rule),
		logging.Int("count", count),
		logging.Int("limit", m.counter.Limit),
	)
	if m.history != nil {
		if err := m.history.RecordFailure(ctx, m.runID, text, rule, at); err != nil {
			m.logger.Warn("record failure", logging.Error(err))
		}
	}
	if !reached {
		return nil
	}

	trigger := action.Trigger{Failures: count, Lines: m.lines, At: at}
	m.lines = nil
	m.metrics.Triggered()
	runErr := m.act.Run(ctx, trigger)

	errText := ""
	if runErr != nil {
		errText = runErr.Error()
		m.logger.Error("action failed",
			logging.String(logging.FieldEventType, "action_failed"),
			logging.String("action", m.act.String()),
			logging.Error(runErr),
		)
	}
	if m.history != nil {
		if err := m.history.RecordTrigger(ctx, m.runID, count, m.act.String(), errText, at); err != nil {
			m.logger.Warn("record trigger", logging.Error(err))
		}
	}
	if runErr != nil {
		return fmt.Errorf("action %s: %w", m.act.String(), runErr)
	}
	return nil
}
