// Package websocket fans detection snapshots out to connected live viewers.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"attendance/internal/dto"
	"attendance/internal/logger"
	"attendance/internal/model"
)

// client is one connected viewer.
type client struct {
	id   uuid.UUID
	conn *websocket.Conn
}

// Hub tracks live viewers and broadcasts detection snapshots to them.
// Registration is direct so viewers can still detach cleanly after the
// broadcast loop has shut down.
type Hub struct {
	clients   map[uuid.UUID]*client
	broadcast chan []byte
	mu        sync.RWMutex
	log       *logger.Logger
}

// NewHub creates an empty hub. Run must be started for broadcasting to make
// progress.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:   make(map[uuid.UUID]*client),
		broadcast: make(chan []byte, 8),
		log:       log,
	}
}

// Run delivers broadcasts until the context is cancelled, then closes every
// remaining connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				c.conn.Close()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case message := <-h.broadcast:
			h.mu.Lock()
			for id, c := range h.clients {
				if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.log.Warning("Failed to send to viewer %s: %v", id, err)
					delete(h.clients, id)
					c.conn.Close()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a connection and returns the viewer id for Unregister.
func (h *Hub) Register(conn *websocket.Conn) uuid.UUID {
	c := &client{id: uuid.New(), conn: conn}

	h.mu.Lock()
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Info("Live viewer %s connected. Total: %d", c.id, total)
	return c.id
}

// Unregister removes a viewer and closes its connection. Unknown ids are
// ignored; the broadcast loop may already have evicted the viewer.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		c.conn.Close()
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.log.Info("Live viewer %s disconnected. Total: %d", id, total)
	}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish broadcasts one detection snapshot to all viewers. Snapshots are
// dropped rather than blocking the recognition loop when viewers are slow.
func (h *Hub) Publish(faces []model.DetectedFace) {
	data, err := json.Marshal(dto.NewFacesResponse(faces))
	if err != nil {
		h.log.Error("Failed to marshal detection snapshot: %v", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
	}
}
