package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/format"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

var clientTracer = otel.Tracer("service/clients")

// ClientService manages the saved buyers picked in the sell form.
type ClientService struct {
	repo   *storage.Repository
	logger *zap.Logger
}

func NewClientService(repo *storage.Repository, logger *zap.Logger) *ClientService {
	return &ClientService{repo: repo, logger: logger}
}

// ListClients returns the client book, optionally narrowed by q over name,
// CPF and phone.
func (s *ClientService) ListClients(ctx context.Context, q string) ([]domain.ClientRecord, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.ListClients")
	defer span.End()

	var list []domain.ClientRecord
	if err := s.repo.View(ctx, func(tx *storage.Tx) (err error) {
		list, err = tx.Clients()
		return err
	}); err != nil {
		return nil, err
	}
	if strings.TrimSpace(q) == "" {
		return list, nil
	}

	digits := format.DigitsOnly(q)
	out := make([]domain.ClientRecord, 0, len(list))
	for _, c := range list {
		if matchesAny(q, c.Name, c.CPF, c.Phone) ||
			(digits != "" && (strings.Contains(format.DigitsOnly(c.CPF), digits) || strings.Contains(format.DigitsOnly(c.Phone), digits))) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *ClientService) GetClient(ctx context.Context, id string) (*domain.ClientRecord, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.GetClient")
	defer span.End()

	var found *domain.ClientRecord
	err := s.repo.View(ctx, func(tx *storage.Tx) error {
		list, err := tx.Clients()
		if err != nil {
			return err
		}
		for i := range list {
			if list[i].ID == id {
				found = &list[i]
				return nil
			}
		}
		return notFound("client", id)
	})
	return found, err
}

// UpsertClient saves a record, replacing the one with the same CPF, or the
// one with the same id when no CPF matches.
func (s *ClientService) UpsertClient(ctx context.Context, record *domain.ClientRecord) (*domain.ClientRecord, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.UpsertClient")
	defer span.End()

	record.Name = strings.TrimSpace(record.Name)
	if err := validateStruct(record); err != nil {
		return nil, err
	}

	var saved domain.ClientRecord
	err := s.repo.Update(ctx, func(tx *storage.Tx) error {
		list, err := tx.Clients()
		if err != nil {
			return err
		}
		var updated []domain.ClientRecord
		updated, saved = upsertClient(list, *record)
		tx.SetClients(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client saved", zap.String("client_id", saved.ID))
	return &saved, nil
}
