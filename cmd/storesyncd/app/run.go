package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alghazaly/storesync/internal/api"
	"github.com/alghazaly/storesync/internal/bridge"
	"github.com/alghazaly/storesync/internal/config"
	"github.com/alghazaly/storesync/internal/events"
	"github.com/alghazaly/storesync/internal/httpapi"
	"github.com/alghazaly/storesync/internal/store"
	storesync "github.com/alghazaly/storesync/internal/sync"
	"github.com/alghazaly/storesync/internal/telemetry"
	"github.com/alghazaly/storesync/internal/versions"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync engine",
	Long: `Run the sync engine: periodic bulk sync of the backend collections into
the local store, plus the websocket event channel for push notifications
and server-triggered syncs.

The engine requires a configuration file (--config) specifying the backend
address; see examples/ for sample configurations.`,
	RunE: runEngine,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second
	serverIdleTimeout      = 60 * time.Second
)

func init() {
	runCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("config", runCmd.Flags().Lookup("config")); err != nil {
		slog.Error("Failed to bind config flag", "error", err)
		os.Exit(1)
	}

	if err := runCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
		os.Exit(1)
	}
}

func runEngine(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	level := slog.LevelInfo
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"server", cfg.Server.BaseURL,
		"sync_interval", cfg.Sync.Interval)

	// Telemetry: a dedicated registry keeps /metrics free of unrelated
	// process-global collectors registered by dependencies.
	registry := prometheus.NewRegistry()
	meterProvider, shutdownMeter, err := telemetry.NewMeterProvider(ctx,
		telemetry.WithMeterServiceName(telemetry.DefaultServiceName),
		telemetry.WithMeterServiceVersion(versions.GetVersionInfo().Version),
		telemetry.WithMetricsEnabled(cfg.MetricsEnabled()),
		telemetry.WithPrometheusRegisterer(registry),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMeter(shutdownCtx); err != nil {
			slog.Error("Failed to shut down meter provider", "error", err)
		}
	}()

	var syncMetrics *telemetry.SyncMetrics
	var channelMetrics *telemetry.ChannelMetrics
	if cfg.MetricsEnabled() {
		if syncMetrics, err = telemetry.NewSyncMetrics(meterProvider); err != nil {
			return fmt.Errorf("failed to create sync metrics: %w", err)
		}
		if channelMetrics, err = telemetry.NewChannelMetrics(meterProvider); err != nil {
			return fmt.Errorf("failed to create channel metrics: %w", err)
		}
	}

	// State store and resource clients
	st := store.NewInMemory()
	st.SetUser(cfg.User.ID, cfg.User.Role)

	client := api.NewClient(cfg.Server.BaseURL, api.WithTimeout(cfg.RequestTimeout()))

	// Sync orchestrator
	orchestrator := storesync.New(st, client,
		storesync.WithInterval(cfg.SyncInterval()),
		storesync.WithLogger(slog.Default()),
		storesync.WithMetrics(syncMetrics),
	)

	// Event channel and dispatch bridge
	manager := events.NewManager(cfg.Server.BaseURL,
		events.WithManagerLogger(slog.Default()),
		events.WithChannelMetrics(channelMetrics),
		events.WithMaxReconnectAttempts(cfg.Channel.MaxReconnectAttempts),
		events.WithHandshakeTimeout(cfg.HandshakeTimeout()),
	)
	dispatchBridge := bridge.New(st, orchestrator, manager,
		bridge.WithLogger(slog.Default()))
	detachBridge := dispatchBridge.Attach(manager)

	orchestrator.Start()
	if err := manager.Connect(ctx, cfg.User.ID); err != nil {
		// the manager keeps retrying with backoff on its own
		slog.Warn("Initial event channel connect failed", "error", err)
	}

	// Operational HTTP surface
	router := httpapi.NewRouter(st, manager,
		httpapi.WithGatherer(registry),
		httpapi.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			httpapi.LoggingMiddleware,
		),
	)

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		slog.Info("Operational HTTP server listening", "address", cfg.HTTP.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down")

	detachBridge()
	manager.Disconnect()
	orchestrator.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced to shut down", "error", err)
		return err
	}

	slog.Info("Shutdown complete")
	return nil
}
