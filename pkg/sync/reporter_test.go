package sync

import (
	"context"
	"testing"

	"summitgo/pkg/model"
	"summitgo/pkg/views"
)

func TestReporterClassification(t *testing.T) {
	cases := []struct {
		name    string
		summary Summary
		level   string
	}{
		{"all succeeded", Summary{Successes: 2}, "success"},
		{"mixed", Summary{Successes: 1, Failures: 1}, "partial"},
		{"all failed", Summary{Failures: 3}, "error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			r := NewReporter(notifier, views.NewInvalidator(newMapCache()))

			r.Report(context.Background(), tc.summary, nil)

			if len(notifier.notes) != 1 {
				t.Fatalf("Expected 1 notification, got %d", len(notifier.notes))
			}
			n := notifier.notes[0]
			if n.Level != tc.level {
				t.Errorf("Expected level %q, got %q", tc.level, n.Level)
			}
			if n.Successes != tc.summary.Successes || n.Failures != tc.summary.Failures {
				t.Errorf("Counts not carried: %+v", n)
			}
		})
	}
}

func TestReporterInvalidatesCommittedViews(t *testing.T) {
	cache := newMapCache()
	ctx := context.Background()
	_ = cache.SetCache(ctx, views.UserProfileKey("user-1"), []byte("x"))
	_ = cache.SetCache(ctx, views.PeakDetailKey("peak-1"), []byte("x"))

	notifier := &recordingNotifier{}
	r := NewReporter(notifier, views.NewInvalidator(cache))

	committed := []model.PendingSubmission{
		{
			Kind: model.KindManualSummit,
			ManualSummit: &model.ManualSummitPayload{
				UserID: "user-1",
				PeakID: "peak-1",
			},
		},
	}
	r.Report(ctx, Summary{Successes: 1}, committed)

	if _, hit := cache.GetCache(ctx, views.UserProfileKey("user-1")); hit {
		t.Error("Profile view should be invalidated after a manual summit commit")
	}
	if _, hit := cache.GetCache(ctx, views.PeakDetailKey("peak-1")); hit {
		t.Error("Peak view should be invalidated after a manual summit commit")
	}
}

func TestReporterSilentOnEmptyPass(t *testing.T) {
	notifier := &recordingNotifier{}
	r := NewReporter(notifier, views.NewInvalidator(newMapCache()))

	r.Report(context.Background(), Summary{}, nil)

	if len(notifier.notes) != 0 {
		t.Error("Empty pass must not notify")
	}
}
