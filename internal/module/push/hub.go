package push

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackhub/server/internal/shared/metrics"
)

// Hub tracks live websocket sessions per user. A user may hold several
// concurrent sessions (multiple tabs); Publish fans out to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*Client

	sendBufferSize int
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

// NewHub creates a new connection hub.
func NewHub(sendBufferSize int, m *metrics.Metrics, logger *zap.Logger) *Hub {
	if sendBufferSize <= 0 {
		sendBufferSize = 64
	}
	return &Hub{
		clients:        make(map[uuid.UUID][]*Client),
		sendBufferSize: sendBufferSize,
		metrics:        m,
		logger:         logger,
	}
}

// Register adds a client to the user's session list.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.userID] = append(h.clients[client.userID], client)
	h.mu.Unlock()

	h.metrics.PushConnections.Inc()
	h.logger.Debug("client connected", zap.String("user_id", client.userID.String()))
}

// Unregister removes a client and closes its send channel. The close happens
// under the write lock so it cannot interleave with Publish, which sends
// while holding the read lock.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	sessions := h.clients[client.userID]
	for i, c := range sessions {
		if c == client {
			h.clients[client.userID] = append(sessions[:i], sessions[i+1:]...)
			break
		}
	}
	if len(h.clients[client.userID]) == 0 {
		delete(h.clients, client.userID)
	}
	closed := client.closed
	client.closed = true
	if !closed {
		close(client.send)
	}
	h.mu.Unlock()

	if !closed {
		h.metrics.PushConnections.Dec()
		h.logger.Debug("client disconnected", zap.String("user_id", client.userID.String()))
	}
}

// IsConnected reports whether the user has at least one live session.
func (h *Hub) IsConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// Publish sends a payload to every live session of the user. Returns
// ErrNotConnected when no session accepted the message; a session with a
// full send buffer is skipped rather than blocked on.
func (h *Hub) Publish(ctx context.Context, userID uuid.UUID, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// The read lock is held across the sends: Unregister closes a send
	// channel under the write lock, so no send can race the close.
	h.mu.RLock()
	defer h.mu.RUnlock()

	sessions := h.clients[userID]
	if len(sessions) == 0 {
		return ErrNotConnected
	}

	delivered := false
	for _, client := range sessions {
		select {
		case client.send <- data:
			delivered = true
		default:
			// Slow consumer; skip rather than block the caller.
		}
	}
	if !delivered {
		return ErrNotConnected
	}
	return nil
}
