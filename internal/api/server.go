// Package api is the local HTTP surface a UI shell talks to: queue
// inspection, manual sync triggering, stats, and a websocket feed of sync
// pass outcomes.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"summitgo/pkg/version"
)

// NewServer creates and configures the HTTP server.
func NewServer(addr string, queueH *QueueHandler, syncH *SyncHandler, statsH *StatsHandler, hub *Hub, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	mux.HandleFunc("GET /api/queue", queueH.HandleList)
	mux.HandleFunc("DELETE /api/queue/{id}", queueH.HandleDiscard)
	mux.HandleFunc("POST /api/sync", syncH.HandleTrigger)
	mux.Handle("GET /api/stats", statsH)
	mux.HandleFunc("GET /ws/events", hub.HandleConnect)

	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		// Call shutdown in a goroutine to allow the response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"version": version.Version})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
