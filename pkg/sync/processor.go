package sync

import (
	"context"
	"fmt"
	"log/slog"

	"summitgo/pkg/model"
	"summitgo/pkg/peakapi"
	"summitgo/pkg/textproc"
)

// Owner types the backend uses to associate photos with a resource.
const (
	OwnerAscent = "ascent"
	OwnerSummit = "summit"
)

// API is the slice of the backend client the processor needs.
type API interface {
	UpdateAscent(ctx context.Context, upd peakapi.AscentUpdate) error
	CreateManualSummit(ctx context.Context, req peakapi.ManualSummitCreate) (string, error)
}

// PhotoUploader attaches photos to a committed submission. Failures are
// per-photo and never affect the submission's own outcome.
type PhotoUploader interface {
	UploadAll(ctx context.Context, ownerType, ownerID string, photos []model.PhotoRef) []PhotoResult
}

// Processor executes one pending submission against the backend.
type Processor struct {
	api    API
	photos PhotoUploader
}

// NewProcessor creates a processor.
func NewProcessor(api API, photos PhotoUploader) *Processor {
	return &Processor{api: api, photos: photos}
}

// Process commits the submission's primary payload, then attaches photos.
// The returned error reflects the primary commit only.
func (p *Processor) Process(ctx context.Context, sub *model.PendingSubmission) error {
	var ownerType, ownerID string

	switch sub.Kind {
	case model.KindTripReport:
		tr := sub.TripReport
		if tr == nil {
			return classifyErr(fmt.Errorf("trip report submission %s has no payload", sub.ID))
		}
		err := p.api.UpdateAscent(ctx, peakapi.AscentUpdate{
			AscentID:         tr.AscentID,
			Notes:            textproc.PlainText(tr.Notes),
			Difficulty:       tr.Difficulty,
			ExperienceRating: tr.ExperienceRating,
			ConditionTags:    tr.ConditionTags,
			CustomTags:       tr.CustomTags,
		})
		if err != nil {
			return classifyErr(err)
		}
		ownerType, ownerID = OwnerAscent, tr.AscentID

	case model.KindManualSummit:
		ms := sub.ManualSummit
		if ms == nil {
			return classifyErr(fmt.Errorf("manual summit submission %s has no payload", sub.ID))
		}
		summitID, err := p.api.CreateManualSummit(ctx, peakapi.ManualSummitCreate{
			ID:               peakapi.DeterministicSummitID(ms.UserID, ms.PeakID, ms.SummitDate()),
			UserID:           ms.UserID,
			PeakID:           ms.PeakID,
			ActivityID:       ms.ActivityID,
			Notes:            textproc.PlainText(ms.Notes),
			SummitTime:       ms.SummitTime,
			Timezone:         ms.Timezone,
			Difficulty:       ms.Difficulty,
			ExperienceRating: ms.ExperienceRating,
			ConditionTags:    ms.ConditionTags,
			CustomTags:       ms.CustomTags,
		})
		if err != nil {
			return classifyErr(err)
		}
		ownerType, ownerID = OwnerSummit, summitID

	default:
		return classifyErr(fmt.Errorf("unknown submission kind %q", sub.Kind))
	}

	if len(sub.Photos) > 0 {
		results := p.photos.UploadAll(ctx, ownerType, ownerID, sub.Photos)
		completed := Completed(results)
		if completed < len(sub.Photos) {
			slog.Warn("Submission committed with missing photos",
				"id", sub.ID, "completed", completed, "total", len(sub.Photos))
		}
	}
	return nil
}

// classifyErr is the single point where transient and permanent failures
// would be told apart. Today every failure is treated as retryable, matching
// the retry policy's uniform cap.
func classifyErr(err error) error {
	return err
}
