// Package metrics exposes monitor counters in the Prometheus text format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"authmon/internal/logging"
)

// Metrics holds the monitor counters on a private registry. A nil *Metrics
// accepts every call and records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	lines      prometheus.Counter
	failures   prometheus.Counter
	triggers   prometheus.Counter
	resets     *prometheus.CounterVec
	pollErrors prometheus.Counter
}

// New registers the authmon counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		lines: factory.NewCounter(prometheus.CounterOpts{
			Name: "authmon_lines_total",
			Help: "Complete log lines read from the watched file",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "authmon_failures_total",
			Help: "Lines classified as failed authentication attempts",
		}),
		triggers: factory.NewCounter(prometheus.CounterOpts{
			Name: "authmon_triggers_total",
			Help: "Times the failure limit was reached",
		}),
		resets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authmon_tail_resets_total",
			Help: "Tail position resets by reason",
		}, []string{"reason"}),
		pollErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "authmon_poll_errors_total",
			Help: "Polls that failed with an I/O error",
		}),
	}
}

func (m *Metrics) LineRead() {
	if m != nil {
		m.lines.Inc()
	}
}

func (m *Metrics) FailureSeen() {
	if m != nil {
		m.failures.Inc()
	}
}

func (m *Metrics) Triggered() {
	if m != nil {
		m.triggers.Inc()
	}
}

func (m *Metrics) TailReset(reason string) {
	if m != nil {
		m.resets.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) PollFailed() {
	if m != nil {
		m.pollErrors.Inc()
	}
}

// Registry exposes the underlying registry for scraping and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on bind until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, bind string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", bind, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	logger.Info("metrics listening", logging.String("address", listener.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve metrics: %w", err)
	}
}
