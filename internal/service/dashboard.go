package service

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/observability"
	"github.com/mgm-veiculos/mgm-api-go/internal/port"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

var dashboardTracer = otel.Tracer("service/dashboard")

// DashboardService computes the home screen counters.
type DashboardService struct {
	repo    *storage.Repository
	cache   port.Cache[*domain.Dashboard]
	metrics *observability.Metrics
	now     Clock
}

func NewDashboardService(repo *storage.Repository, cache port.Cache[*domain.Dashboard], metrics *observability.Metrics) *DashboardService {
	return &DashboardService{repo: repo, cache: cache, metrics: metrics, now: systemClock}
}

// WithClock replaces the time source.
func (s *DashboardService) WithClock(now Clock) *DashboardService {
	s.now = now
	return s
}

// Get returns the counters for the current repository version, computing
// them on a cache miss.
func (s *DashboardService) Get(ctx context.Context) (*domain.Dashboard, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Get")
	defer span.End()

	cacheKey := "dashboard:" + strconv.FormatUint(s.repo.Version(), 10)
	if d, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("dashboard")
		return d, nil
	}
	s.metrics.IncrCacheMiss("dashboard")

	var (
		forSale, sold, archived []domain.Vehicle
		commissions             []domain.Commission
	)
	err := s.repo.View(ctx, func(tx *storage.Tx) error {
		var err error
		if forSale, err = tx.ForSale(); err != nil {
			return err
		}
		if sold, err = tx.Sold(); err != nil {
			return err
		}
		if archived, err = tx.Archived(); err != nil {
			return err
		}
		commissions, err = tx.Commissions()
		return err
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	d := &domain.Dashboard{Archived: len(archived), GeneratedAt: now.UTC().Format(time.RFC3339)}

	for _, v := range forSale {
		switch v.Type {
		case domain.TypeCar:
			d.ForSale.Cars++
		case domain.TypeMotorcycle:
			d.ForSale.Motorcycles++
		}
	}
	d.ForSale.Total = d.ForSale.Cars + d.ForSale.Motorcycles

	for _, v := range sold {
		switch v.Status {
		case domain.StatusPaidOff:
			continue
		case domain.StatusDelinquent:
			d.Sold.Delinquent++
		default:
			d.Sold.OnTime++
		}
		if domain.LateMonths(v.NextDueDate, now) > 0 {
			d.Overdue++
		}
	}
	d.Sold.Total = d.Sold.OnTime + d.Sold.Delinquent

	d.Commissions = domain.SumCommissions(commissions)

	d.Total = d.ForSale.Total + d.Sold.Total + d.Archived
	s.cache.Set(cacheKey, d)
	return d, nil
}
