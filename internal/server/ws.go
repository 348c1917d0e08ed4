package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/recognizer"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Hub broadcasts recognition events and status updates to the
// WebSocket clients connected on /api/events. Broadcasts originate
// outside the hub: the daemon registers itself as an event sink and
// forwards emissions here.
type Hub struct {
	logger  *slog.Logger
	onReset func()

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub creates a Hub with no connected clients.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
	}
}

// OnReset registers the callback invoked when a client sends "r".
// Register it before the hub starts accepting connections.
func (h *Hub) OnReset(fn func()) {
	h.onReset = fn
}

// ServeHTTP upgrades the connection and keeps it registered until the
// client disconnects. The only inbound message clients send is a
// single "r" to reset the recognition window.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if string(bytes.TrimSpace(msg)) == "r" && h.onReset != nil {
			h.onReset()
		}
	}
}

// eventMessage is the wire form of a recognition emission.
type eventMessage struct {
	Type string `json:"type"`
	recognizer.Event
}

// statusMessage is the wire form of a status update.
type statusMessage struct {
	Type string `json:"type"`
	app.Status
}

// BroadcastEvent pushes one recognition emission to every client.
func (h *Hub) BroadcastEvent(event recognizer.Event) {
	h.send(eventMessage{Type: "event", Event: event})
}

// BroadcastStatus pushes a status update to every client.
func (h *Hub) BroadcastStatus(status app.Status) {
	h.send(statusMessage{Type: "status", Status: status})
}

// send marshals the message once and writes it to every client,
// dropping connections whose writes fail. The write lock is held for
// the whole fanout because gorilla connections allow only one
// concurrent writer.
func (h *Hub) send(message any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("marshal websocket message", "error", err)
		return
	}

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
