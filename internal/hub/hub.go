// Package hub implements the per-session broadcast group: the set of live
// WebSocket subscriptions for a session and best-effort fan-out to them.
package hub

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/KokopelliMusic/Tawa-3/internal/metrics"
)

// sendBuffer is the per-client outbound queue depth. A full buffer means the
// client is too slow; deliveries to it are dropped, not queued.
const sendBuffer = 64

// Client is one WebSocket subscription bound to a session.
type Client struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
}

// NewClient creates a client for a session. Conn may be nil in tests; only
// the write pump touches it.
func NewClient(sessionID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan []byte, sendBuffer),
	}
}

// Hub manages broadcast groups keyed by session code.
//
// Sends happen under the read lock and channel closes under the write lock,
// so a publish can never race an unsubscribe into a closed channel. Sends
// are non-blocking, so holding the lock cannot stall on a slow client.
type Hub struct {
	mu       sync.RWMutex
	groups   map[string]map[*Client]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// New creates a hub with the given WebSocket buffer sizes.
func New(readBuf, writeBuf int, log *zap.Logger) *Hub {
	return &Hub{
		groups: make(map[string]map[*Client]struct{}),
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			// Clients connect from the webplayer and mobile apps on other
			// origins; session codes gate access, not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe adds a client to the session's group. Idempotent per client.
func (h *Hub) Subscribe(sessionID string, c *Client) {
	h.mu.Lock()
	if h.groups[sessionID] == nil {
		h.groups[sessionID] = make(map[*Client]struct{})
	}
	if _, ok := h.groups[sessionID][c]; ok {
		h.mu.Unlock()
		return
	}
	h.groups[sessionID][c] = struct{}{}
	h.mu.Unlock()

	metrics.ConnectedClients.Inc()
	h.log.Info("client subscribed",
		zap.String("session_id", sessionID),
		zap.String("client_id", c.ID))
}

// Unsubscribe removes a client from the session's group and closes its send
// channel. Safe to call for a client that is not a member.
func (h *Hub) Unsubscribe(sessionID string, c *Client) {
	h.mu.Lock()
	m, ok := h.groups[sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, member := m[c]; !member {
		h.mu.Unlock()
		return
	}
	delete(m, c)
	if len(m) == 0 {
		delete(h.groups, sessionID)
	}
	close(c.Send)
	h.mu.Unlock()

	metrics.ConnectedClients.Dec()
	h.log.Info("client unsubscribed",
		zap.String("session_id", sessionID),
		zap.String("client_id", c.ID))
}

// Publish delivers payload to every client subscribed to the session.
// Delivery is best-effort per client: a full buffer drops the payload for
// that client only and never fails the publish.
func (h *Hub) Publish(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.groups[sessionID] {
		select {
		case c.Send <- payload:
		default:
			metrics.BroadcastDropped.Inc()
			h.log.Warn("client send buffer full, dropping event",
				zap.String("session_id", sessionID),
				zap.String("client_id", c.ID))
		}
	}
}

// Deliver sends payload to a single client only (validation replies). The
// client must still be subscribed; best-effort like Publish.
func (h *Hub) Deliver(c *Client, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, member := h.groups[c.SessionID][c]; !member {
		return
	}
	select {
	case c.Send <- payload:
	default:
		metrics.BroadcastDropped.Inc()
		h.log.Warn("client send buffer full, dropping reply",
			zap.String("client_id", c.ID))
	}
}

// CloseSession disconnects every client in the session's group.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	m, ok := h.groups[sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.groups, sessionID)
	for c := range m {
		close(c.Send)
	}
	h.mu.Unlock()

	for c := range m {
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
		metrics.ConnectedClients.Dec()
	}
	h.log.Info("session group closed", zap.String("session_id", sessionID))
}

// ClientCount returns the number of clients subscribed to a session.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[sessionID])
}

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (h *Hub) Upgrader() *websocket.Upgrader {
	return &h.upgrader
}
