package main

import (
	"cmp"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crawler-middleware/internal/api/routes"
	"crawler-middleware/internal/config"
	"crawler-middleware/internal/logging"
	"crawler-middleware/internal/mux"
	"crawler-middleware/internal/service"
	"crawler-middleware/internal/storage"
	"crawler-middleware/pkg/utils"

	"github.com/labstack/echo/v4"
)

func main() {
	startedAt := time.Now()
	configPath := cmp.Or(os.Getenv("CONFIG_PATH"), "configs/config.yaml")

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting Crawler Middleware", map[string]interface{}{
		"driver": cfg.Database.Driver,
		"grpc":   cfg.GRPC.Enabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open store")
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to ensure database schema")
	}
	logger.Info("Database schema ready", map[string]interface{}{"driver": store.Driver()})

	svc := service.New(store,
		service.WithTxTimeout(cfg.Database.TxTimeout),
		service.WithLogger(logger),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	routes.SetupRoutes(e, cfg, svc)

	address := cfg.Address()

	if cfg.GRPC.Enabled {
		m := mux.NewMultiplexer(cfg, svc, e)
		if err := m.Start(address); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}

		<-ctx.Done()
		logger.Info("Shutting down server...")
		if err := m.Stop(); err != nil {
			logger.WithError(err).Error("Error shutting down server")
		}
		logger.Info("Server shutdown complete", map[string]interface{}{"uptime": utils.FormatUptime(time.Since(startedAt))})
		return
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Error shutting down server")
		}
	}()

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	logger.Info("Server starting", map[string]interface{}{"address": address})
	if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("Server failed to start")
	}
	logger.Info("Server shutdown complete", map[string]interface{}{"uptime": utils.FormatUptime(time.Since(startedAt))})
}
