package metrics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"authmon/internal/metrics"
)

func TestCountersAccumulate(t *testing.T) {
	m := metrics.New()
	m.LineRead()
	m.LineRead()
	m.FailureSeen()
	m.Triggered()
	m.TailReset("truncated")
	m.TailReset("truncated")
	m.TailReset("replaced")
	m.PollFailed()

	expected := `
# HELP authmon_tail_resets_total Tail position resets by reason
# TYPE authmon_tail_resets_total counter
authmon_tail_resets_total{reason="replaced"} 1
authmon_tail_resets_total{reason="truncated"} 2
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "authmon_tail_resets_total"); err != nil {
		t.Fatalf("unexpected resets: %v", err)
	}
	count, err := testutil.GatherAndCount(m.Registry())
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 6 {
		t.Fatalf("expected 6 series, got %d", count)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	m.LineRead()
	m.FailureSeen()
	m.Triggered()
	m.TailReset("vanished")
	m.PollFailed()
}

func TestHandlerExposesText(t *testing.T) {
	m := metrics.New()
	m.FailureSeen()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "authmon_failures_total 1") {
		t.Fatalf("expected failures counter in output, got %s", body)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	m := metrics.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx, "127.0.0.1:0", nil) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServeRejectsBadAddress(t *testing.T) {
	m := metrics.New()
	if err := m.Serve(context.Background(), "not-an-address", nil); err == nil {
		t.Fatal("expected listen error")
	}
}
