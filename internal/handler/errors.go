package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KokopelliMusic/Tawa-3/internal/errs"
)

// abortWithError maps domain sentinels to HTTP status codes.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrSessionNotFound),
		errors.Is(err, errs.ErrSongNotFound),
		errors.Is(err, errs.ErrPlaylistNotFound),
		errors.Is(err, errs.ErrNowPlayingNotFound),
		errors.Is(err, errs.ErrSpotifyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrAlreadyClaimed),
		errors.Is(err, errs.ErrNotClaimed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrUnknownEventType),
		errors.Is(err, errs.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
