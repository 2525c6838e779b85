package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/KokopelliMusic/Tawa-3/internal/config"
	"github.com/KokopelliMusic/Tawa-3/internal/database"
	"github.com/KokopelliMusic/Tawa-3/internal/gateway"
	"github.com/KokopelliMusic/Tawa-3/internal/handler"
	"github.com/KokopelliMusic/Tawa-3/internal/history"
	"github.com/KokopelliMusic/Tawa-3/internal/hub"
	"github.com/KokopelliMusic/Tawa-3/internal/router"
	"github.com/KokopelliMusic/Tawa-3/internal/service"
)

// API is the HTTP + WebSocket API application.
type API struct {
	cfg     *config.Config
	srv     *http.Server
	db      *gorm.DB
	events  history.Store
	hub     *hub.Hub
	log     *zap.Logger
}

// NewAPI creates the API application: validates config, runs migrations,
// opens DB and Redis, builds the event bus and router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}

	var store history.Store
	if cfg.Redis.Host != "" {
		store, err = history.NewRedis(context.Background(), cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB, cfg.EventHistorySize)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		logger.Warn("REDIS_HOST empty, using in-memory event history")
		store = history.NewMemory(cfg.EventHistorySize)
	}

	h := hub.New(cfg.WSReadBufferSize, cfg.WSWriteBufferSize, logger)
	gw := gateway.New(store, h, logger)

	catalog := service.NewCatalog(db)
	sessionSvc := service.NewSessionService(db, gw, catalog, cfg.SessionCodeLength, cfg.SessionMaxAgeHours, logger)
	queueSvc := service.NewQueueService(db, gw, logger)

	sessionHandler := handler.NewSessionHandler(sessionSvc, cfg.WSBaseURL)
	eventHandler := handler.NewEventHandler(gw, sessionSvc)
	queueHandler := handler.NewQueueHandler(queueSvc)
	spotifyHandler := handler.NewSpotifyHandler(catalog)
	sessionWS := handler.NewSessionWSHandler(h, gw, sessionSvc, cfg.WSMaxMessageSize, logger)
	health := handler.NewHealthHandler()

	r := router.New(catalog, sessionHandler, eventHandler, queueHandler, spotifyHandler, sessionWS, health)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, db: db, events: store, hub: h, log: logger}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled; then shuts
// down gracefully.
func (a *API) Run(ctx context.Context) error {
	addr := a.srv.Addr
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Metrics:       %s/metrics", base)
	log.Printf("  Sessions:      %s/sessions", base)
	log.Printf("  WebSocket:     ws://%s:%s/ws/session/:session_id", host, a.cfg.HTTPPort)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.events.Close(); err != nil {
		a.log.Warn("history store close", zap.Error(err))
	}
	_ = a.log.Sync()
	return nil
}
