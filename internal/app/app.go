// Package app assembles the stores, services and router from configuration.
// The HTTP server and the admin CLI build the same graph through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/config"
	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/handler"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/cache"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/memory"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/objectstore"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/observability"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/redisstore"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/resilience"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/sqlite"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/supabase"
	"github.com/mgm-veiculos/mgm-api-go/internal/port"
	"github.com/mgm-veiculos/mgm-api-go/internal/service"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

// App is the wired application.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Repo    *storage.Repository

	Vehicles    *service.VehicleService
	Commissions *service.CommissionService
	Clients     *service.ClientService
	Settings    *service.SettingsService
	Dashboard   *service.DashboardService
	Auth        *service.AuthService

	closers []func() error
}

// New builds every component described by cfg. Close releases them.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	kv, err := a.openKV(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	blobs, err := a.openBlobs(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	seed := storage.EmptySeed()
	if cfg.SeedDemoData {
		seed = storage.DemoSeed()
		logger.Info("demo data enabled for unwritten keys")
	}
	a.Repo = storage.NewRepository(kv, cfg.DataBackend, seed, a.Metrics, logger)

	dashboardCache := cache.New[*domain.Dashboard](cfg.CacheTTL)
	a.closers = append(a.closers, func() error { dashboardCache.Close(); return nil })

	uploads := resilience.NewBulkhead(cfg.MaxConcurrentUploads)

	a.Vehicles = service.NewVehicleService(a.Repo, blobs, uploads, cfg.MaxUploadBytes, a.Metrics, logger)
	a.Commissions = service.NewCommissionService(a.Repo, a.Metrics, logger)
	a.Clients = service.NewClientService(a.Repo, logger)
	a.Settings = service.NewSettingsService(a.Repo, logger)
	a.Dashboard = service.NewDashboardService(a.Repo, dashboardCache, a.Metrics)
	a.Auth = service.NewAuthService(cfg.AuthEnabled, cfg.ManagerPasswordHash, cfg.ViewerPasswordHash,
		cfg.JWTSecret, cfg.JWTAccessTTL, logger)
	if cfg.AuthEnabled {
		logger.Info("auth service enabled")
	} else {
		logger.Warn("auth disabled, every request acts as gestor")
	}

	return a, nil
}

// Handler returns the HTTP router over the wired services.
func (a *App) Handler() http.Handler {
	return handler.NewRouter(handler.Services{
		Vehicles:       a.Vehicles,
		Commissions:    a.Commissions,
		Clients:        a.Clients,
		Settings:       a.Settings,
		Dashboard:      a.Dashboard,
		Auth:           a.Auth,
		Store:          a.Repo,
		MaxUploadBytes: a.Config.MaxUploadBytes,
		CORSOrigins:    a.Config.CORSAllowedOrigins,
	}, a.Metrics, a.Logger)
}

// Close releases stores and background workers in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openKV(ctx context.Context) (port.KVStore, error) {
	cfg := a.Config
	switch cfg.DataBackend {
	case config.BackendMemory:
		a.Logger.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil

	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.Logger.Info("using SQLite as data backend", zap.String("path", cfg.SQLitePath))
		return store, nil

	case config.BackendRedis:
		client, err := redisstore.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("dial redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.Logger.Info("using Redis as data backend",
			zap.String("addr", cfg.RedisAddr),
			zap.String("namespace", cfg.RedisNamespace),
		)
		cb := resilience.NewCircuitBreaker("redis", a.Logger)
		return redisstore.New(client, cfg.RedisNamespace, cb, a.Logger), nil

	case config.BackendSupabase:
		a.Logger.Info("using Supabase as data backend",
			zap.String("supabase_url", cfg.SupabaseURL),
			zap.String("table", cfg.SupabaseKVTable),
		)
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		cb := resilience.NewCircuitBreaker("supabase", a.Logger)
		return supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseService,
			cfg.SupabaseKVTable,
			cb,
			resilience.Config{MaxRetries: cfg.MaxRetries, InitialBackoff: cfg.InitialBackoff},
			a.Logger,
		), nil
	}
	return nil, fmt.Errorf("unknown DATA_BACKEND %q", cfg.DataBackend)
}

func (a *App) openBlobs(ctx context.Context) (port.BlobStore, error) {
	cfg := a.Config
	if cfg.BlobBackend == config.BlobS3 {
		store, err := objectstore.NewS3(ctx, objectstore.S3Config{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3UsePathStyle,
		}, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("s3 bucket %s: %w", cfg.S3Bucket, err)
		}
		a.Logger.Info("documents stored in S3", zap.String("bucket", cfg.S3Bucket))
		return store, nil
	}

	store, err := objectstore.NewLocal(cfg.BlobDir)
	if err != nil {
		return nil, fmt.Errorf("blob dir: %w", err)
	}
	a.Logger.Info("documents stored on disk", zap.String("dir", cfg.BlobDir))
	return store, nil
}
