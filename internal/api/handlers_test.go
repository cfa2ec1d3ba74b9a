package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"summitgo/pkg/db"
	"summitgo/pkg/model"
	"summitgo/pkg/queue"
	"summitgo/pkg/store"
	syncengine "summitgo/pkg/sync"
	"summitgo/pkg/tracker"
)

func newTestRepo(t *testing.T) *queue.Repository {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to init DB: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return queue.New(store.NewSQLiteStore(d))
}

func TestQueueHandler(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	repo.Enqueue(ctx, model.PendingSubmission{
		Kind:       model.KindTripReport,
		TripReport: &model.TripReportPayload{AscentID: "asc-1"},
		Photos:     []model.PhotoRef{{Filename: "a.jpg"}},
	})
	stalledID := repo.Enqueue(ctx, model.PendingSubmission{
		Kind:       model.KindTripReport,
		TripReport: &model.TripReportPayload{AscentID: "asc-2"},
	})
	capped := queue.MaxRetryAttempts
	repo.Update(ctx, stalledID, queue.Patch{RetryCount: &capped})

	h := &QueueHandler{Repo: repo}
	rec := httptest.NewRecorder()
	h.HandleList(rec, httptest.NewRequest(http.MethodGet, "/api/queue", nil))

	var body struct {
		Count       int `json:"count"`
		Submissions []struct {
			ID         string `json:"id"`
			Stalled    bool   `json:"stalled"`
			PhotoCount int    `json:"photo_count"`
		} `json:"submissions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("Expected 2 items, got %d", body.Count)
	}
	if body.Submissions[0].PhotoCount != 1 {
		t.Errorf("Photo count missing: %+v", body.Submissions[0])
	}
	if !body.Submissions[1].Stalled {
		t.Error("Capped item should be flagged stalled")
	}
}

func TestQueueDiscard(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id := repo.Enqueue(ctx, model.PendingSubmission{
		Kind:       model.KindTripReport,
		TripReport: &model.TripReportPayload{AscentID: "asc-1"},
	})

	h := &QueueHandler{Repo: repo}
	req := httptest.NewRequest(http.MethodDelete, "/api/queue/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleDiscard(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if repo.Len() != 0 {
		t.Error("Submission not discarded")
	}

	// Discarding twice is harmless.
	rec = httptest.NewRecorder()
	h.HandleDiscard(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 on repeat, got %d", rec.Code)
	}
}

type fakeTrigger struct {
	accept bool
	calls  int
}

func (f *fakeTrigger) TriggerSync(ctx context.Context) bool {
	f.calls++
	return f.accept
}

func TestSyncHandler(t *testing.T) {
	trigger := &fakeTrigger{accept: true}
	h := &SyncHandler{Engine: trigger}

	rec := httptest.NewRecorder()
	h.HandleTrigger(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	if rec.Code != http.StatusAccepted {
		t.Errorf("Expected 202, got %d", rec.Code)
	}

	trigger.accept = false
	rec = httptest.NewRecorder()
	h.HandleTrigger(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 while a pass is running, got %d", rec.Code)
	}
	if trigger.calls != 2 {
		t.Errorf("Expected 2 trigger calls, got %d", trigger.calls)
	}
}

func TestStatsHandler(t *testing.T) {
	tr := tracker.New()
	tr.TrackAPISuccess("api.summitlog.app")

	h := &StatsHandler{Tracker: tr}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	if !strings.Contains(rec.Body.String(), "api.summitlog.app") {
		t.Errorf("Stats missing provider: %s", rec.Body.String())
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnect))
	defer srv.Close()
	defer hub.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	// Registration happens just after the handshake; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.Lock()
		n := len(hub.clients)
		hub.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Notify(context.Background(), syncengine.Notification{
		Level:     "partial",
		Message:   "Synced 1 submission(s), 1 still pending",
		Successes: 1,
		Failures:  1,
	})

	var msg struct {
		Event   string                  `json:"event"`
		Payload syncengine.Notification `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if msg.Event != "sync-result" || msg.Payload.Level != "partial" {
		t.Errorf("Wrong event: %+v", msg)
	}
}
