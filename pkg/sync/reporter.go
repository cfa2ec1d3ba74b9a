package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"summitgo/pkg/model"
	"summitgo/pkg/views"
)

// Notification is a user-facing pass outcome.
type Notification struct {
	Level     string    `json:"level"` // "success", "partial", "error"
	Message   string    `json:"message"`
	Successes int       `json:"successes"`
	Failures  int       `json:"failures"`
	At        time.Time `json:"at"`
}

// Notifier delivers pass summaries to the user-facing surface.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Reporter classifies pass outcomes, notifies the user, and invalidates the
// read views each committed submission made stale.
type Reporter struct {
	notifier Notifier
	views    *views.Invalidator
}

// NewReporter creates a reporter.
func NewReporter(notifier Notifier, inv *views.Invalidator) *Reporter {
	return &Reporter{notifier: notifier, views: inv}
}

// Report handles one completed pass. Invalidation covers every committed
// submission regardless of its photo outcomes.
func (r *Reporter) Report(ctx context.Context, summary Summary, committed []model.PendingSubmission) {
	if summary.Total() == 0 {
		return
	}

	for i := range committed {
		r.views.SubmissionCommitted(ctx, &committed[i])
	}

	n := Notification{
		Successes: summary.Successes,
		Failures:  summary.Failures,
		At:        time.Now(),
	}
	switch {
	case summary.Failures == 0:
		n.Level = "success"
		n.Message = fmt.Sprintf("Synced %d pending submission(s)", summary.Successes)
	case summary.Successes == 0:
		n.Level = "error"
		n.Message = fmt.Sprintf("Failed to sync %d pending submission(s)", summary.Failures)
	default:
		n.Level = "partial"
		n.Message = fmt.Sprintf("Synced %d submission(s), %d still pending", summary.Successes, summary.Failures)
	}

	slog.Info("Sync pass finished",
		"level", n.Level, "successes", summary.Successes, "failures", summary.Failures)
	r.notifier.Notify(ctx, n)
}
