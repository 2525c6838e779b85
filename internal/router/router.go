package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KokopelliMusic/Tawa-3/internal/handler"
	"github.com/KokopelliMusic/Tawa-3/internal/metrics"
	"github.com/KokopelliMusic/Tawa-3/internal/middleware"
	"github.com/KokopelliMusic/Tawa-3/internal/service"
	"github.com/KokopelliMusic/Tawa-3/pkg/constants"
)

// New builds the HTTP router.
func New(
	catalog *service.Catalog,
	sessionHandler *handler.SessionHandler,
	eventHandler *handler.EventHandler,
	queueHandler *handler.QueueHandler,
	spotifyHandler *handler.SpotifyHandler,
	sessionWS *handler.SessionWSHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.Middleware())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)
	r.GET(constants.PathMetrics, metrics.Handler())

	auth := middleware.Auth(catalog)

	sessions := r.Group("/sessions", middleware.RequireClientType())
	{
		sessions.POST("", sessionHandler.CreateSession) // unauthenticated
		sessions.GET("", auth, middleware.RequireStaff(), sessionHandler.ListSessions)

		sessions.GET("/:id", auth, sessionHandler.GetSession)
		sessions.POST("/:id/claim", auth, sessionHandler.ClaimSession)
		sessions.POST("/:id/join", auth, sessionHandler.JoinSession)
		sessions.GET("/:id/settings", auth, sessionHandler.GetSessionSettings)

		sessions.POST("/:id/events", auth, eventHandler.PushEvent)
		sessions.GET("/:id/events", auth, eventHandler.GetEventHistory)

		sessions.PUT("/:id/queue", auth, queueHandler.SetQueue)
		sessions.GET("/:id/queue", auth, queueHandler.GetQueue)
		sessions.PUT("/:id/now-playing", auth, queueHandler.SetNowPlaying)
		sessions.GET("/:id/now-playing", auth, queueHandler.GetNowPlaying)
	}

	spotify := r.Group("/spotify", middleware.RequireClientType(), auth)
	{
		spotify.GET("", spotifyHandler.GetSpotify)
		spotify.PUT("", spotifyHandler.SetSpotify)
		spotify.PATCH("", spotifyHandler.UpdateSpotify)
		spotify.DELETE("", spotifyHandler.DeleteSpotify)
	}

	// WebSocket transport, bound to one session code at connect time.
	r.GET("/ws/session/:session_id", sessionWS.ServeWS)

	return r
}
