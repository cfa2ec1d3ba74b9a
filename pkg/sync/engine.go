// Package sync drives delivery of queued submissions: one sequential pass
// over the repository per trigger, with capped exponential backoff per item
// and a single-flight guarantee across triggers.
package sync

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"summitgo/pkg/model"
	"summitgo/pkg/queue"
)

// SubmissionProcessor executes one pending submission. An error means the
// primary commit failed and the item stays queued.
type SubmissionProcessor interface {
	Process(ctx context.Context, sub *model.PendingSubmission) error
}

// OnlineNotifier delivers offline→online edges. Satisfied by *netmon.Monitor.
type OnlineNotifier interface {
	OnOnline(fn func())
}

// Summary aggregates one pass's outcomes.
type Summary struct {
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
}

// Total returns the number of items the pass considered.
func (s Summary) Total() int { return s.Successes + s.Failures }

// Engine owns the processing loop. It is a background service started by
// the composition root, not a side effect of any UI surface.
type Engine struct {
	repo     *queue.Repository
	proc     SubmissionProcessor
	reporter *Reporter

	// processing is the single-flight flag: at most one pass at a time,
	// no matter how fast connectivity flaps or how often the user mashes
	// the sync button.
	processing atomic.Bool

	// sleep is injectable so backoff tests don't take wall-clock time.
	sleep func(ctx context.Context, d time.Duration) error

	cancel context.CancelFunc
}

// NewEngine creates the sync engine.
func NewEngine(repo *queue.Repository, proc SubmissionProcessor, reporter *Reporter) *Engine {
	return &Engine{
		repo:     repo,
		proc:     proc,
		reporter: reporter,
		sleep:    sleepCtx,
	}
}

// Start subscribes the engine to connectivity edges. A pass is triggered
// only on the offline→online edge, and only when work is pending.
func (e *Engine) Start(ctx context.Context, monitor OnlineNotifier) {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	monitor.OnOnline(func() {
		if e.repo.Len() == 0 {
			slog.Debug("Connectivity restored with empty queue, nothing to sync")
			return
		}
		go e.runPass(runCtx)
	})
}

// Stop prevents further passes from starting. The current item of an active
// pass runs to completion; there is no mid-item cancellation.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// TriggerSync starts a manual pass. Returns false if one is already running.
func (e *Engine) TriggerSync(ctx context.Context) bool {
	if e.processing.Load() {
		return false
	}
	go e.runPass(ctx)
	return true
}

// retryDelay implements the backoff schedule: no delay before a first
// attempt, then 2s, 4s, 8s... capped at 30s.
func retryDelay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	d := time.Duration(1<<uint(retryCount)) * time.Second
	if d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}

// runPass processes the queue front to back, one item at a time. Items at
// the retry cap are skipped without a network call but still counted as
// failures so the summary reflects them.
func (e *Engine) runPass(ctx context.Context) {
	if !e.processing.CompareAndSwap(false, true) {
		slog.Debug("Sync pass already in flight, ignoring trigger")
		return
	}
	defer e.processing.Store(false)

	items := e.repo.List()
	if len(items) == 0 {
		return
	}
	slog.Info("Starting sync pass", "pending", len(items))

	var summary Summary
	var committed []model.PendingSubmission

	for i := range items {
		sub := &items[i]

		if sub.RetryCount >= queue.MaxRetryAttempts {
			slog.Warn("Skipping submission at retry cap",
				"id", sub.ID, "retries", sub.RetryCount, "last_error", sub.LastError)
			summary.Failures++
			continue
		}

		if delay := retryDelay(sub.RetryCount); delay > 0 {
			if err := e.sleep(ctx, delay); err != nil {
				slog.Info("Sync pass interrupted during backoff", "id", sub.ID)
				break
			}
		}

		if err := e.proc.Process(ctx, sub); err != nil {
			retries := sub.RetryCount + 1
			msg := err.Error()
			e.repo.Update(ctx, sub.ID, queue.Patch{RetryCount: &retries, LastError: &msg})
			summary.Failures++
			slog.Error("Submission failed", "id", sub.ID, "attempt", retries, "error", err)
			continue
		}

		e.repo.Remove(ctx, sub.ID)
		summary.Successes++
		committed = append(committed, *sub)
		slog.Info("Submission delivered", "id", sub.ID, "kind", sub.Kind)
	}

	e.reporter.Report(ctx, summary, committed)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
