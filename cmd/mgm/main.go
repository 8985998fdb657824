package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/app"
	"github.com/mgm-veiculos/mgm-api-go/internal/config"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/observability"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("data_backend", cfg.DataBackend),
		zap.String("blob_backend", cfg.BlobBackend),
		zap.Bool("seed_demo_data", cfg.SeedDemoData),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int64("max_upload_bytes", cfg.MaxUploadBytes),
		zap.Bool("auth_enabled", cfg.AuthEnabled),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(context.Background(), cfg.OTLPEndpoint, "mgm-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Stores & services ---
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		logger.Fatal("failed to start application", zap.Error(err))
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close stores", zap.Error(err))
		}
	}()

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      application.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}
