package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KokopelliMusic/Tawa-3/internal/middleware"
	"github.com/KokopelliMusic/Tawa-3/internal/model"
	"github.com/KokopelliMusic/Tawa-3/internal/service"
)

// SessionHandler handles the REST API for session lifecycle.
type SessionHandler struct {
	svc       *service.SessionService
	wsBaseURL string
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(svc *service.SessionService, wsBaseURL string) *SessionHandler {
	return &SessionHandler{svc: svc, wsBaseURL: wsBaseURL}
}

// wsURL returns the WebSocket URL a client should connect to for a session.
func (h *SessionHandler) wsURL(sessionID string) string {
	if h.wsBaseURL == "" {
		return fmt.Sprintf("/ws/session/%s", sessionID)
	}
	return fmt.Sprintf("%s/ws/session/%s", strings.TrimSuffix(h.wsBaseURL, "/"), sessionID)
}

// CreateSession handles POST /sessions (unauthenticated).
func (h *SessionHandler) CreateSession(c *gin.Context) {
	sess, err := h.svc.CreateTemp(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session": model.NewSessionJSON(sess, nil),
		"ws_url":  h.wsURL(sess.SessionID),
	})
}

// ClaimSession handles POST /sessions/:id/claim.
func (h *SessionHandler) ClaimSession(c *gin.Context) {
	var req model.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	user := middleware.User(c)
	token := middleware.AccessToken(c)

	sess, err := h.svc.Claim(c.Request.Context(), c.Param("id"), user, token, req.PlaylistID, req.Settings)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSessionJSON(sess, user))
}

// JoinSession handles POST /sessions/:id/join.
func (h *SessionHandler) JoinSession(c *gin.Context) {
	sess, err := h.svc.Join(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	owner, err := h.svc.Owner(c.Request.Context(), sess)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSessionJSON(sess, owner))
}

// GetSession handles GET /sessions/:id — the settings view of a session,
// matching what the webplayer expects on load.
func (h *SessionHandler) GetSession(c *gin.Context) {
	st, sess, owner, err := h.svc.GetSettings(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSettingsJSON(st, sess, owner))
}

// GetSessionSettings handles GET /sessions/:id/settings.
func (h *SessionHandler) GetSessionSettings(c *gin.Context) {
	h.GetSession(c)
}

// ListSessions handles GET /sessions (staff only).
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.svc.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]model.SessionJSON, 0, len(sessions))
	for i := range sessions {
		owner, err := h.svc.Owner(c.Request.Context(), &sessions[i])
		if err != nil {
			abortWithError(c, err)
			return
		}
		out = append(out, model.NewSessionJSON(&sessions[i], owner))
	}
	c.JSON(http.StatusOK, out)
}
