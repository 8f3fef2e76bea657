package preflight

import (
	"context"

	"authmon/internal/config"
)

// Status grades a single check.
type Status int

const (
	StatusInfo Status = iota
	StatusOK
	StatusWarn
	StatusFail
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// Passed reports whether the result does not block a run.
func (r Result) Passed() bool {
	return r.Status != StatusFail
}

// RunAll executes every applicable check for cfg. The history check only
// runs when history is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckWatchedFile(cfg.Monitor.File),
		CheckAction(cfg),
		CheckDirectoryAccess("State dir", cfg.Paths.StateDir),
		CheckLock(cfg.LockPath(), cfg.PIDPath()),
	}
	if cfg.History.Enabled {
		results = append(results, CheckHistory(ctx, cfg.History.Path))
	}
	return results
}

// Failed counts results that block a run.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed() {
			n++
		}
	}
	return n
}
