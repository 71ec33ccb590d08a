// Package httpapi provides the operational HTTP surface of the sync daemon:
// health, status and metrics endpoints.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alghazaly/storesync/internal/events"
	"github.com/alghazaly/storesync/internal/store"
)

// SyncStatusSource is the slice of the store read by the status endpoint
type SyncStatusSource interface {
	Online() bool
	SyncStatus() store.Status
	SyncError() *string
	LastSyncTime() *time.Time
}

// ChannelStatusSource is the slice of the event channel read by the status
// endpoint
type ChannelStatusSource interface {
	State() events.State
	IsConnected() bool
	ReconnectAttempts() int
}

// ServerOption configures the HTTP surface
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares []func(http.Handler) http.Handler
	gatherer    prometheus.Gatherer
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithGatherer sets the Prometheus gatherer served at /metrics. Defaults to
// the process-wide default gatherer.
func WithGatherer(gatherer prometheus.Gatherer) ServerOption {
	return func(cfg *serverConfig) {
		cfg.gatherer = gatherer
	}
}

// statusResponse is the JSON shape of the /status endpoint
type statusResponse struct {
	Online            bool         `json:"online"`
	SyncStatus        store.Status `json:"sync_status"`
	SyncError         *string      `json:"sync_error,omitempty"`
	LastSyncTime      *time.Time   `json:"last_sync_time,omitempty"`
	ChannelState      events.State `json:"channel_state"`
	ChannelConnected  bool         `json:"channel_connected"`
	ReconnectAttempts int          `json:"reconnect_attempts"`
}

// NewRouter creates and configures the HTTP router
func NewRouter(syncSource SyncStatusSource, channelSource ChannelStatusSource, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
		gatherer:    prometheus.DefaultGatherer,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()

	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Get("/healthz", healthHandler)
	r.Get("/status", statusHandler(syncSource, channelSource))
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{}))

	return r
}

// healthHandler reports process liveness
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// statusHandler reports the current sync and channel state
func statusHandler(syncSource SyncStatusSource, channelSource ChannelStatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := statusResponse{
			Online:            syncSource.Online(),
			SyncStatus:        syncSource.SyncStatus(),
			SyncError:         syncSource.SyncError(),
			LastSyncTime:      syncSource.LastSyncTime(),
			ChannelState:      channelSource.State(),
			ChannelConnected:  channelSource.IsConnected(),
			ReconnectAttempts: channelSource.ReconnectAttempts(),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("Failed to encode status response", "error", err)
		}
	}
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
