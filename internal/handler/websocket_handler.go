package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/KokopelliMusic/Tawa-3/internal/gateway"
	"github.com/KokopelliMusic/Tawa-3/internal/hub"
	"github.com/KokopelliMusic/Tawa-3/internal/service"
)

// SessionWSHandler handles WebSocket connections for /ws/session/:session_id.
type SessionWSHandler struct {
	hub        *hub.Hub
	gw         *gateway.Gateway
	sessions   *service.SessionService
	maxMsgSize int64
	logger     *zap.Logger
}

// NewSessionWSHandler creates the WebSocket session handler.
func NewSessionWSHandler(h *hub.Hub, gw *gateway.Gateway, sessions *service.SessionService, maxMsgSize int64, logger *zap.Logger) *SessionWSHandler {
	return &SessionWSHandler{hub: h, gw: gw, sessions: sessions, maxMsgSize: maxMsgSize, logger: logger}
}

// ServeWS upgrades the request and runs the event loop. The connection is
// bound to exactly one session code, taken from the path. Unclaimed sessions
// accept connections too: the webplayer subscribes before the claim so it
// can receive session_created.
func (h *SessionWSHandler) ServeWS(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return
	}
	if _, err := h.sessions.Get(c.Request.Context(), sessionID); err != nil {
		abortWithError(c, err)
		return
	}

	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	if h.maxMsgSize > 0 {
		conn.SetReadLimit(h.maxMsgSize)
	}

	client := hub.NewClient(sessionID, conn)
	h.hub.Subscribe(sessionID, client)
	defer h.hub.Unsubscribe(sessionID, client)

	go h.writePump(client)
	h.readPump(c, client)
}

// readPump serializes inbound handling for one connection: one message at a
// time through the gateway until the connection drops.
func (h *SessionWSHandler) readPump(c *gin.Context, client *hub.Client) {
	defer func() {
		_ = client.Conn.Close()
	}()
	for {
		_, data, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.Error(err))
			}
			break
		}
		h.gw.HandleInbound(c.Request.Context(), client, data)
	}
}

func (h *SessionWSHandler) writePump(client *hub.Client) {
	defer func() {
		_ = client.Conn.Close()
	}()
	for data := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
}
