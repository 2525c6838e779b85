// Package metrics exposes prometheus collectors for the session service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsPublished counts events that went through append+publish,
	// labeled by origin ("client" or "server").
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tawa_events_published_total",
		Help: "Events appended to history and broadcast, by origin.",
	}, []string{"origin"})

	// EventsRejected counts inbound messages that failed validation.
	EventsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tawa_events_rejected_total",
		Help: "Inbound events rejected by validation.",
	})

	// BroadcastDropped counts per-subscriber deliveries dropped because the
	// subscriber's send buffer was full.
	BroadcastDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tawa_broadcast_dropped_total",
		Help: "Broadcast deliveries dropped on full subscriber buffers.",
	})

	// ConnectedClients tracks live WebSocket subscriptions across sessions.
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tawa_connected_clients",
		Help: "Currently subscribed WebSocket clients.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tawa_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "path", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tawa_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
