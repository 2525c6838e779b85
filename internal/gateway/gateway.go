// Package gateway is the event gateway: it validates inbound client
// messages, persists them to the ring history store and fans them out
// through the broadcast hub, and offers the same append+publish path for
// server-originated events.
package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KokopelliMusic/Tawa-3/internal/history"
	"github.com/KokopelliMusic/Tawa-3/internal/hub"
	"github.com/KokopelliMusic/Tawa-3/internal/metrics"
	"github.com/KokopelliMusic/Tawa-3/internal/model"
)

// Client types stamped on server-originated events.
const (
	ClientTypeServer = "tawa"
	ClientTypeSystem = "system"
)

// envelope is what subscribers receive for a client-originated event: the
// echoed payload plus an (empty, by contract) errors list.
type envelope struct {
	Errors    []string        `json:"errors"`
	EventData json.RawMessage `json:"event_data"`
}

// errorReply is sent back to the originating connection only.
type errorReply struct {
	Errors []string `json:"errors"`
}

// Gateway ties history store and hub together. A per-session mutex makes
// append+publish atomic relative to other events of the same session, so
// the history prefix always matches broadcast order; different sessions do
// not contend.
type Gateway struct {
	store history.Store
	hub   *hub.Hub
	log   *zap.Logger

	mu    sync.Mutex
	locks map[string]*codeLock
}

// codeLock is a per-session ordering mutex with a waiter count, so the map
// entry lives only while some publisher holds or waits on it.
type codeLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a gateway.
func New(store history.Store, h *hub.Hub, log *zap.Logger) *Gateway {
	return &Gateway{
		store: store,
		hub:   h,
		log:   log,
		locks: make(map[string]*codeLock),
	}
}

// acquire locks the session's ordering mutex and returns its release func.
// Release drops the map entry once no publisher holds or waits on it.
func (g *Gateway) acquire(sessionID string) (release func()) {
	g.mu.Lock()
	l, ok := g.locks[sessionID]
	if !ok {
		l = &codeLock{}
		g.locks[sessionID] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		g.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(g.locks, sessionID)
		}
		g.mu.Unlock()
	}
}

// HandleInbound processes one raw message from a connection. Validation
// failures are reported back to the sender only and keep the connection
// open; valid events are appended to history and broadcast to the session.
func (g *Gateway) HandleInbound(ctx context.Context, c *hub.Client, raw []byte) {
	_, errs := model.ValidateEvent(raw)
	if len(errs) > 0 {
		metrics.EventsRejected.Inc()
		reply, err := json.Marshal(errorReply{Errors: errs})
		if err != nil {
			g.log.Error("marshal validation reply", zap.Error(err))
			return
		}
		g.hub.Deliver(c, reply)
		return
	}

	out, err := json.Marshal(envelope{Errors: []string{}, EventData: raw})
	if err != nil {
		g.log.Error("marshal event envelope", zap.Error(err))
		return
	}

	release := g.acquire(c.SessionID)
	defer release()
	if err := g.store.Append(ctx, c.SessionID, raw); err != nil {
		// Drop the message: history and broadcast must not diverge.
		g.log.Error("history append failed, dropping event",
			zap.String("session_id", c.SessionID), zap.Error(err))
		return
	}
	g.hub.Publish(c.SessionID, out)
	metrics.EventsPublished.WithLabelValues("client").Inc()
}

// PublishServerEvent builds an event with the current timestamp and runs the
// same append+publish sequence as inbound events. Per-subscriber delivery
// failures never surface here; only a history store failure is returned.
func (g *Gateway) PublishServerEvent(ctx context.Context, sessionID, clientType, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	event := model.Event{
		ClientType: clientType,
		EventType:  eventType,
		Data:       payload,
		Date:       time.Now().Format(time.RFC3339),
		SessionID:  sessionID,
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}

	release := g.acquire(sessionID)
	defer release()
	if err := g.store.Append(ctx, sessionID, raw); err != nil {
		return err
	}
	g.hub.Publish(sessionID, raw)
	metrics.EventsPublished.WithLabelValues("server").Inc()

	g.log.Debug("server event published",
		zap.String("session_id", sessionID),
		zap.String("event_type", eventType))
	return nil
}

// History returns up to limit recent events for a session, newest first.
// Used by joining clients to replay; never pushed automatically.
func (g *Gateway) History(ctx context.Context, sessionID string, limit int) ([]json.RawMessage, error) {
	return g.store.Recent(ctx, sessionID, limit)
}
