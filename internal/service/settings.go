package service

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

var settingsTracer = otel.Tracer("service/settings")

// SettingsService owns the commission table and the backup file.
type SettingsService struct {
	repo   *storage.Repository
	logger *zap.Logger
}

func NewSettingsService(repo *storage.Repository, logger *zap.Logger) *SettingsService {
	return &SettingsService{repo: repo, logger: logger}
}

func (s *SettingsService) GetRates(ctx context.Context) (domain.CommissionRates, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.GetRates")
	defer span.End()

	var rates domain.CommissionRates
	err := s.repo.View(ctx, func(tx *storage.Tx) (err error) {
		rates, err = tx.Rates()
		return err
	})
	return rates, err
}

// SaveRates stores the table rounded to whole reais, never negative.
func (s *SettingsService) SaveRates(ctx context.Context, rates domain.CommissionRates) (domain.CommissionRates, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.SaveRates")
	defer span.End()

	rates = rates.Normalized()
	if err := s.repo.Update(ctx, func(tx *storage.Tx) error {
		tx.SetRates(rates)
		return nil
	}); err != nil {
		return rates, err
	}

	s.logger.Info("commission rates saved",
		zap.String("carro", rates.Car.StringFixed(0)),
		zap.String("moto", rates.Motorcycle.StringFixed(0)),
	)
	return rates, nil
}

// Export returns every stored mgm_ key with its raw JSON text.
func (s *SettingsService) Export(ctx context.Context) (domain.Backup, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.Export")
	defer span.End()

	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make(domain.Backup, len(snap))
	for k, v := range snap {
		out[k] = string(v)
	}
	span.SetAttributes(attribute.Int("backup.keys", len(out)))
	return out, nil
}

// Import writes back a backup. Only mgm_ keys holding a JSON string that
// decodes as the stored value are taken; everything else is reported as
// skipped.
func (s *SettingsService) Import(ctx context.Context, payload map[string]any) (*domain.ImportResult, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.Import")
	defer span.End()

	result := &domain.ImportResult{Imported: []string{}, Skipped: []string{}}
	entries := make(map[string][]byte, len(payload))
	for k, v := range payload {
		text, ok := v.(string)
		if !ok || !strings.HasPrefix(k, storage.KeyPrefix) {
			result.Skipped = append(result.Skipped, k)
			continue
		}
		if err := storage.CheckEntry(k, []byte(text)); err != nil {
			s.logger.Warn("backup entry does not decode, skipping", zap.String("key", k), zap.Error(err))
			result.Skipped = append(result.Skipped, k)
			continue
		}
		entries[k] = []byte(text)
		result.Imported = append(result.Imported, k)
	}
	sort.Strings(result.Imported)
	sort.Strings(result.Skipped)

	if err := s.repo.Restore(ctx, entries); err != nil {
		return nil, err
	}

	s.logger.Info("backup imported",
		zap.Int("imported", len(result.Imported)),
		zap.Strings("skipped", result.Skipped),
	)
	return result, nil
}

// Reset erases every mgm_ key and leaves the default commission rates.
func (s *SettingsService) Reset(ctx context.Context) ([]string, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.Reset")
	defer span.End()

	deleted, err := s.repo.Reset(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Warn("all data reset", zap.Int("keys_deleted", len(deleted)))
	return deleted, nil
}
