// Package probe runs startup checks before the sync engine goes live.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// CheckFunc is a function that performs a health check.
// It returns nil if the check passes, or an error if it fails.
type CheckFunc func(ctx context.Context) error

// Probe represents a single startup check.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool // If true, a failure here should prevent application startup.
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Run executes probes sequentially, bounding each with its own timeout.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))

	for i, p := range probes {
		start := time.Now()

		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := p.Check(checkCtx)
		cancel()

		results[i] = Result{
			Probe:    p,
			Error:    err,
			Duration: time.Since(start),
		}
	}

	return results
}

// AnalyzeResults logs each outcome and returns a combined error if any
// critical probe failed. Non-critical failures (an unreachable backend at
// startup, say) are logged and tolerated: the connectivity monitor will
// pick things up once the network returns.
func AnalyzeResults(results []Result) error {
	var criticalErrors []error

	for _, r := range results {
		if r.Error == nil {
			slog.Info("Startup check passed", "name", r.Probe.Name, "took", r.Duration.Round(time.Millisecond))
			continue
		}
		if r.Probe.Critical {
			slog.Error("Startup check failed", "name", r.Probe.Name, "error", r.Error)
			criticalErrors = append(criticalErrors, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		} else {
			slog.Warn("Startup check failed (non-critical)", "name", r.Probe.Name, "error", r.Error)
		}
	}

	if len(criticalErrors) > 0 {
		return errors.Join(criticalErrors...)
	}
	return nil
}
