package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KokopelliMusic/Tawa-3/internal/gateway"
	"github.com/KokopelliMusic/Tawa-3/internal/history"
	"github.com/KokopelliMusic/Tawa-3/internal/model"
	"github.com/KokopelliMusic/Tawa-3/internal/service"
)

// EventHandler handles the request/response side of the event bus:
// pushing server-visible events and replaying recent history.
type EventHandler struct {
	gw  *gateway.Gateway
	svc *service.SessionService
}

// NewEventHandler creates an event handler.
func NewEventHandler(gw *gateway.Gateway, svc *service.SessionService) *EventHandler {
	return &EventHandler{gw: gw, svc: svc}
}

// PushEvent handles POST /sessions/:id/events.
func (h *EventHandler) PushEvent(c *gin.Context) {
	var req model.PushEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	sessionID := c.Param("id")
	if _, err := h.svc.Get(c.Request.Context(), sessionID); err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.gw.PublishServerEvent(c.Request.Context(), sessionID, req.ClientType, req.EventType, req.Data); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetEventHistory handles GET /sessions/:id/events — up to the ring size of
// recent events, newest first. Unknown sessions yield an empty list.
func (h *EventHandler) GetEventHistory(c *gin.Context) {
	events, err := h.gw.History(c.Request.Context(), c.Param("id"), history.DefaultSize)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
