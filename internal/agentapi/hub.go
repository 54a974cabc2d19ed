package agentapi

import (
	"Vybe_AI/internal/models"
	"Vybe_AI/pkg/logger"
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub fans agent events out to every connected WebSocket subscriber. It also
// satisfies the engine's event sink so the desktop shell sees each action as
// it is logged.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
	log         *logger.Logger
}

// NewHub creates an empty Hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*websocket.Conn),
		log:         log,
	}
}

// Add registers a new subscriber connection.
func (h *Hub) Add(connID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[connID] = conn
}

// Remove closes and drops a subscriber connection.
func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.connections[connID]; ok {
		conn.Close()
		delete(h.connections, connID)
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Publish broadcasts one agent event to every subscriber. A write failure
// drops only that subscriber.
func (h *Hub) Publish(ctx context.Context, event models.AgentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for connID, conn := range h.connections {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.connections, connID)
			if h.log != nil {
				h.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("dropped websocket subscriber")
			}
		}
	}
	return nil
}
