package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/observability"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

var commissionTracer = otel.Tracer("service/commissions")

// CommissionService manages the seller's commissions and the client book.
type CommissionService struct {
	repo    *storage.Repository
	metrics *observability.Metrics
	logger  *zap.Logger
	now     Clock
}

func NewCommissionService(repo *storage.Repository, metrics *observability.Metrics, logger *zap.Logger) *CommissionService {
	return &CommissionService{repo: repo, metrics: metrics, logger: logger, now: systemClock}
}

// WithClock replaces the time source.
func (s *CommissionService) WithClock(now Clock) *CommissionService {
	s.now = now
	return s
}

// ListCommissions returns the items of one tab. Totals always cover the
// whole list.
func (s *CommissionService) ListCommissions(ctx context.Context, tab domain.CommissionTab) (*domain.CommissionList, error) {
	ctx, span := commissionTracer.Start(ctx, "CommissionService.ListCommissions")
	defer span.End()

	var want domain.CommissionStatus
	switch tab {
	case "", domain.TabAll:
	case domain.TabPending:
		want = domain.CommissionPending
	case domain.TabReceived:
		want = domain.CommissionReceived
	default:
		return nil, &domain.ErrValidation{Field: "tab", Message: "use todas, a-receber ou recebidas"}
	}

	var all []domain.Commission
	if err := s.repo.View(ctx, func(tx *storage.Tx) (err error) {
		all, err = tx.Commissions()
		return err
	}); err != nil {
		return nil, err
	}

	items := make([]domain.Commission, 0, len(all))
	for _, c := range all {
		if want == "" || c.Status == want {
			items = append(items, c)
		}
	}

	span.SetAttributes(attribute.Int("commissions.count", len(items)))
	return &domain.CommissionList{Items: items, Totals: domain.SumCommissions(all)}, nil
}

// AddCommission records a manual commission priced from the current rates.
func (s *CommissionService) AddCommission(ctx context.Context, draft *domain.CommissionDraft) (*domain.Commission, error) {
	ctx, span := commissionTracer.Start(ctx, "CommissionService.AddCommission")
	defer span.End()

	draft.Client = strings.TrimSpace(draft.Client)
	draft.Vehicle = strings.TrimSpace(draft.Vehicle)
	if err := validateStruct(draft); err != nil {
		return nil, err
	}

	c := domain.Commission{
		ID:      newID("cm-"),
		Type:    draft.Type,
		Client:  draft.Client,
		Vehicle: draft.Vehicle,
		Plate:   strings.TrimSpace(draft.Plate),
		Date:    stringOr(draft.Date, domain.Today(s.now())),
		Status:  domain.CommissionPending,
	}
	err := s.repo.Update(ctx, func(tx *storage.Tx) error {
		rates, err := tx.Rates()
		if err != nil {
			return err
		}
		c.Amount = rates.For(c.Type)

		list, err := tx.Commissions()
		if err != nil {
			return err
		}
		tx.SetCommissions(prepend(c, list))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrCommissionCreated(string(c.Type))
	s.logger.Info("commission created",
		zap.String("commission_id", c.ID),
		zap.String("type", string(c.Type)),
		zap.String("amount", c.Amount.StringFixed(2)),
	)
	return &c, nil
}

func (s *CommissionService) MarkReceived(ctx context.Context, id string) (*domain.Commission, error) {
	ctx, span := commissionTracer.Start(ctx, "CommissionService.MarkReceived")
	defer span.End()
	span.SetAttributes(attribute.String("commission.id", id))

	var updated domain.Commission
	err := s.repo.Update(ctx, func(tx *storage.Tx) error {
		list, err := tx.Commissions()
		if err != nil {
			return err
		}
		i := indexOfCommission(list, id)
		if i < 0 {
			return notFound("commission", id)
		}
		list[i].Status = domain.CommissionReceived
		updated = list[i]
		tx.SetCommissions(list)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("commission received", zap.String("commission_id", id))
	return &updated, nil
}

func (s *CommissionService) DeleteCommission(ctx context.Context, id string) error {
	ctx, span := commissionTracer.Start(ctx, "CommissionService.DeleteCommission")
	defer span.End()

	err := s.repo.Update(ctx, func(tx *storage.Tx) error {
		list, err := tx.Commissions()
		if err != nil {
			return err
		}
		i := indexOfCommission(list, id)
		if i < 0 {
			return notFound("commission", id)
		}
		tx.SetCommissions(removeAt(list, i))
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("commission deleted", zap.String("commission_id", id))
	return nil
}

func indexOfCommission(list []domain.Commission, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
