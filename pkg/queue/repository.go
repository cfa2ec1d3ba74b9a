// Package queue owns the pending-submission queue. The in-memory list is the
// authoritative state; every mutation is written through to the submission
// store before the call returns, so a process kill leaves the on-disk queue
// consistent with the last completed step.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"summitgo/pkg/model"
	"summitgo/pkg/store"
)

// MaxRetryAttempts caps automatic retries per submission. Items at or above
// the cap stay in the queue for visibility but are never attempted again
// without an explicit user action.
const MaxRetryAttempts = 3

// Patch is a partial update applied to a queued submission.
type Patch struct {
	RetryCount *int
	LastError  *string
}

// Repository is the single logical owner of all pending submissions.
// All mutation goes through Enqueue/Update/Remove.
type Repository struct {
	mu    sync.Mutex
	items []*model.PendingSubmission
	store store.SubmissionStore
}

// New creates an empty repository backed by the given store.
// Call Initialize to load persisted entries.
func New(s store.SubmissionStore) *Repository {
	return &Repository{store: s}
}

// Initialize loads persisted submissions on cold start, in insertion order.
func (r *Repository) Initialize(ctx context.Context) error {
	subs, err := r.store.ListSubmissions(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.items = subs
	r.mu.Unlock()

	if len(subs) > 0 {
		slog.Info("Loaded pending submissions from disk", "count", len(subs))
	}
	return nil
}

// Enqueue appends a submission and returns its id. A missing id and
// CreatedAt are assigned here. Persistence failures are logged, not
// returned: the in-memory queue stays authoritative either way.
func (r *Repository) Enqueue(ctx context.Context, sub model.PendingSubmission) string {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	r.mu.Lock()
	stored := sub.Clone()
	r.items = append(r.items, &stored)
	r.mu.Unlock()

	if err := r.store.SaveSubmission(ctx, &stored); err != nil {
		slog.Error("Failed to persist enqueued submission", "id", sub.ID, "error", err)
	}
	slog.Info("Queued submission", "id", sub.ID, "kind", sub.Kind, "photos", len(sub.Photos))
	return sub.ID
}

// Remove deletes a submission. Unknown ids are a silent no-op.
func (r *Repository) Remove(ctx context.Context, id string) {
	r.mu.Lock()
	found := false
	for i, it := range r.items {
		if it.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			found = true
			break
		}
	}
	r.mu.Unlock()

	if !found {
		return
	}
	if err := r.store.DeleteSubmission(ctx, id); err != nil {
		slog.Error("Failed to delete persisted submission", "id", id, "error", err)
	}
}

// Update applies a partial update. Unknown ids are a silent no-op.
func (r *Repository) Update(ctx context.Context, id string, p Patch) {
	r.mu.Lock()
	var updated *model.PendingSubmission
	for _, it := range r.items {
		if it.ID != id {
			continue
		}
		if p.RetryCount != nil {
			it.RetryCount = *p.RetryCount
		}
		if p.LastError != nil {
			it.LastError = *p.LastError
		}
		cp := it.Clone()
		updated = &cp
		break
	}
	r.mu.Unlock()

	if updated == nil {
		return
	}
	if err := r.store.SaveSubmission(ctx, updated); err != nil {
		slog.Error("Failed to persist submission update", "id", id, "error", err)
	}
}

// List returns copies of all pending submissions in insertion order.
func (r *Repository) List() []model.PendingSubmission {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.PendingSubmission, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it.Clone())
	}
	return out
}

// Len reports the number of pending submissions.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
