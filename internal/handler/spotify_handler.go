package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KokopelliMusic/Tawa-3/internal/middleware"
	"github.com/KokopelliMusic/Tawa-3/internal/model"
	"github.com/KokopelliMusic/Tawa-3/internal/service"
)

// SpotifyHandler manages the per-user external credential snapshot.
type SpotifyHandler struct {
	catalog *service.Catalog
}

// NewSpotifyHandler creates a spotify credential handler.
func NewSpotifyHandler(catalog *service.Catalog) *SpotifyHandler {
	return &SpotifyHandler{catalog: catalog}
}

// GetSpotify handles GET /spotify.
func (h *SpotifyHandler) GetSpotify(c *gin.Context) {
	user := middleware.User(c)
	sp, err := h.catalog.SpotifyByUser(user.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSpotifyJSON(sp))
}

// SetSpotify handles PUT /spotify — create or replace.
func (h *SpotifyHandler) SetSpotify(c *gin.Context) {
	var req model.SetSpotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	user := middleware.User(c)
	sp, err := h.catalog.SetSpotify(user.ID, req.AccessToken, req.RefreshToken, req.ExpiresAt)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSpotifyJSON(sp))
}

// UpdateSpotify handles PATCH /spotify — refresh the access token.
func (h *SpotifyHandler) UpdateSpotify(c *gin.Context) {
	var req model.UpdateSpotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	user := middleware.User(c)
	sp, err := h.catalog.UpdateSpotify(user.ID, req.AccessToken, req.ExpiresAt)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSpotifyJSON(sp))
}

// DeleteSpotify handles DELETE /spotify.
func (h *SpotifyHandler) DeleteSpotify(c *gin.Context) {
	user := middleware.User(c)
	if err := h.catalog.DeleteSpotify(user.ID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
