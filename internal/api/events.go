package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	syncengine "summitgo/pkg/sync"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The server binds to loopback only; the UI shell connects locally.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub pushes sync events to connected UI clients. It implements
// sync.Notifier, so the reporter can hand it pass summaries directly.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

var _ syncengine.Notifier = (*Hub)(nil)

// HandleConnect upgrades the request and registers the client.
func (h *Hub) HandleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	slog.Debug("Event client connected", "clients", count)

	// Read loop: we ignore client messages but need the reads to notice
	// disconnects promptly.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

// Notify implements sync.Notifier: broadcasts a pass summary. Slow or dead
// clients are dropped rather than allowed to block the caller.
func (h *Hub) Notify(ctx context.Context, n syncengine.Notification) {
	h.Broadcast("sync-result", n)
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(event string, payload any) {
	msg := map[string]any{"event": event, "payload": payload}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			slog.Debug("Dropping event client", "error", err)
			h.remove(conn)
		}
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()
}
