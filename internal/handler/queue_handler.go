package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KokopelliMusic/Tawa-3/internal/errs"
	"github.com/KokopelliMusic/Tawa-3/internal/model"
	"github.com/KokopelliMusic/Tawa-3/internal/service"
)

// QueueHandler handles the queue and now-playing REST API.
type QueueHandler struct {
	svc *service.QueueService
}

// NewQueueHandler creates a queue handler.
func NewQueueHandler(svc *service.QueueService) *QueueHandler {
	return &QueueHandler{svc: svc}
}

// SetQueue handles PUT /sessions/:id/queue — full replace.
func (h *QueueHandler) SetQueue(c *gin.Context) {
	var req model.SetQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: ids must be an array", errs.ErrInvalidInput))
		return
	}
	if req.IDs == nil {
		abortWithError(c, fmt.Errorf("%w: ids must be an array", errs.ErrInvalidInput))
		return
	}
	queue, err := h.svc.SetQueue(c.Request.Context(), c.Param("id"), req.IDs)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": queue})
}

// GetQueue handles GET /sessions/:id/queue.
func (h *QueueHandler) GetQueue(c *gin.Context) {
	queue, err := h.svc.GetQueue(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, queue)
}

// SetNowPlaying handles PUT /sessions/:id/now-playing.
func (h *QueueHandler) SetNowPlaying(c *gin.Context) {
	var req model.SetNowPlayingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	np, err := h.svc.SetNowPlaying(c.Request.Context(), c.Param("id"), req.SongID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, np)
}

// GetNowPlaying handles GET /sessions/:id/now-playing.
func (h *QueueHandler) GetNowPlaying(c *gin.Context) {
	np, err := h.svc.GetNowPlaying(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, np)
}
