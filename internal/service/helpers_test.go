package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/cache"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/memory"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/objectstore"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/observability"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/resilience"
	"github.com/mgm-veiculos/mgm-api-go/internal/service"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

// fixedNow is 15 Jan 2026, the reference day for every lateness assertion.
var fixedNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fixture struct {
	kv          *memory.Store
	repo        *storage.Repository
	metrics     *observability.Metrics
	vehicles    *service.VehicleService
	commissions *service.CommissionService
	clients     *service.ClientService
	settings    *service.SettingsService
	dashboard   *service.DashboardService
}

func newFixture(t *testing.T, seed storage.Seed) *fixture {
	t.Helper()

	kv := memory.New()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	repo := storage.NewRepository(kv, "memory", seed, metrics, logger)

	blobs, err := objectstore.NewLocal(t.TempDir())
	require.NoError(t, err)

	dashCache := cache.New[*domain.Dashboard](time.Minute)
	t.Cleanup(dashCache.Close)

	return &fixture{
		kv:          kv,
		repo:        repo,
		metrics:     metrics,
		vehicles:    service.NewVehicleService(repo, blobs, resilience.NewBulkhead(2), 1024, metrics, logger).WithClock(clock),
		commissions: service.NewCommissionService(repo, metrics, logger).WithClock(clock),
		clients:     service.NewClientService(repo, logger),
		settings:    service.NewSettingsService(repo, logger),
		dashboard:   service.NewDashboardService(repo, dashCache, metrics).WithClock(clock),
	}
}

func demoFixture(t *testing.T) *fixture {
	return newFixture(t, storage.DemoSeed())
}

func ids(list []domain.Vehicle) []string {
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = v.ID
	}
	return out
}

func entryIDs(list []domain.SoldEntry) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Vehicle.ID
	}
	return out
}

func money(v int64) *domain.Money {
	return domain.MoneyPtr(domain.MoneyFromInt(v))
}

func ptr[T any](v T) *T { return &v }

var ctx = context.Background()
