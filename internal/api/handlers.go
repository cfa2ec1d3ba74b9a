package api

import (
	"context"
	"net/http"
	"time"

	"summitgo/pkg/queue"
	"summitgo/pkg/tracker"
)

// QueueHandler serves the pending-submission queue.
type QueueHandler struct {
	Repo *queue.Repository
}

type queueItem struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	RetryCount int       `json:"retry_count"`
	LastError  string    `json:"last_error,omitempty"`
	Stalled    bool      `json:"stalled"`
	PhotoCount int       `json:"photo_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// HandleList returns the queue in insertion order. Items at the retry cap
// are flagged stalled so the UI can offer a manual retry or discard.
func (h *QueueHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items := h.Repo.List()
	out := make([]queueItem, 0, len(items))
	for _, it := range items {
		out = append(out, queueItem{
			ID:         it.ID,
			Kind:       string(it.Kind),
			RetryCount: it.RetryCount,
			LastError:  it.LastError,
			Stalled:    it.RetryCount >= queue.MaxRetryAttempts,
			PhotoCount: len(it.Photos),
			CreatedAt:  it.CreatedAt,
		})
	}
	writeJSON(w, map[string]any{"count": len(out), "submissions": out})
}

// HandleDiscard drops a queued submission on explicit user request. This is
// the only path besides successful delivery that removes an item; stalled
// submissions otherwise stay visible in the queue.
func (h *QueueHandler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.Repo.Remove(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// SyncTrigger matches the engine's manual trigger.
type SyncTrigger interface {
	TriggerSync(ctx context.Context) bool
}

// SyncHandler triggers a manual sync pass.
type SyncHandler struct {
	Engine SyncTrigger
}

// HandleTrigger starts a pass unless one is already running.
func (h *SyncHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	if h.Engine.TriggerSync(context.WithoutCancel(r.Context())) {
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]string{"status": "started"})
		return
	}
	w.WriteHeader(http.StatusConflict)
	writeJSON(w, map[string]string{"status": "already-running"})
}

// StatsHandler serves tracker counters.
type StatsHandler struct {
	Tracker *tracker.Tracker
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Tracker.Snapshot())
}
