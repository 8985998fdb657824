package service

import (
	"context"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/observability"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/resilience"
	"github.com/mgm-veiculos/mgm-api-go/internal/port"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

var vehicleTracer = otel.Tracer("service/vehicles")

// VehicleService moves vehicles through À Venda, Vendidos and Arquivo Morto
// and manages their documents.
type VehicleService struct {
	repo      *storage.Repository
	blobs     port.BlobStore
	uploads   *resilience.Bulkhead
	maxUpload int64
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       Clock
}

// NewVehicleService creates the vehicle service.
func NewVehicleService(repo *storage.Repository, blobs port.BlobStore, uploads *resilience.Bulkhead, maxUpload int64, metrics *observability.Metrics, logger *zap.Logger) *VehicleService {
	return &VehicleService{
		repo:      repo,
		blobs:     blobs,
		uploads:   uploads,
		maxUpload: maxUpload,
		metrics:   metrics,
		logger:    logger,
		now:       systemClock,
	}
}

// WithClock replaces the time source.
func (s *VehicleService) WithClock(now Clock) *VehicleService {
	s.now = now
	return s
}

// ============================================================
// À Venda: list, add, edit, delete, change type
// ============================================================

func (s *VehicleService) ListForSale(ctx context.Context, q domain.ForSaleQuery) (*domain.ForSaleBoard, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.ListForSale")
	defer span.End()

	filter := q.Filter
	if filter == "" {
		filter = domain.FilterNone
	}
	if filter != domain.FilterNone && filter != domain.FilterYear && filter != domain.FilterType {
		return nil, &domain.ErrValidation{Field: "filter", Message: "use none, year ou type"}
	}

	var list []domain.Vehicle
	if err := s.repo.View(ctx, func(tx *storage.Tx) (err error) {
		list, err = tx.ForSale()
		return err
	}); err != nil {
		return nil, err
	}

	board := &domain.ForSaleBoard{
		Cars:        []domain.Vehicle{},
		Motorcycles: []domain.Vehicle{},
	}
	years := make([]int, 0, len(list))
	value := strings.TrimSpace(q.Value)
	for _, v := range list {
		years = append(years, v.Year)

		if !matchesAny(q.Q, v.Model, v.Plate, yearString(v.Year)) {
			continue
		}
		if value != "" {
			switch filter {
			case domain.FilterYear:
				if strconv.Itoa(v.Year) != value {
					continue
				}
			case domain.FilterType:
				if string(v.Type) != value {
					continue
				}
			}
		}

		// Vehicles of any other type belong to neither column.
		switch v.Type {
		case domain.TypeCar:
			board.Cars = append(board.Cars, v)
		case domain.TypeMotorcycle:
			board.Motorcycles = append(board.Motorcycles, v)
		}
	}
	board.Years = distinctYearsDesc(years)
	board.Total = len(board.Cars) + len(board.Motorcycles)

	span.SetAttributes(attribute.Int("vehicles.matched", board.Total))
	return board, nil
}

func (s *VehicleService) AddVehicle(ctx context.Context, draft *domain.VehicleDraft) (*domain.Vehicle, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.AddVehicle")
	defer span.End()

	if err := validateStruct(draft); err != nil {
		return nil, err
	}

	v := domain.Vehicle{
		ID:         newID("v-"),
		Model:      stringOr(strings.TrimSpace(draft.Model), "(Sem modelo)"),
		Plate:      stringOr(strings.TrimSpace(draft.Plate), "—"),
		Year:       draft.Year,
		Status:     domain.StatusForSale,
		Type:       draft.Type,
		Price:      moneyOr(draft.Price, nil),
		Brand:      draft.Brand,
		Color:      draft.Color,
		Renavam:    draft.Renavam,
		Chassis:    draft.Chassis,
		CRLVNumber: draft.CRLVNumber,
		Notes:      draft.Notes,
	}
	if v.Year == 0 {
		v.Year = s.now().Year()
	}
	if v.Type == "" {
		v.Type = domain.TypeCar
	}

	err := s.repo.Update(ctx, func(tx *storage.Tx) error {
		list, err := tx.ForSale()
		if err != nil {
			return err
		}
		tx.SetForSale(prepend(v, list))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("vehicle added",
		zap.String("vehicle_id", v.ID),
		zap.String("model", v.Model),
		zap.String("type", string(v.Type)),
	)
	return &v, nil
}

func (s *VehicleService) GetForSale(ctx context.Context, id string) (*domain.Vehicle, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.GetForSale")
	defer span.End()

	return s.getFrom(ctx, id, (*storage.Tx).ForSale)
}

func (s *VehicleService) EditVehicle(ctx context.Context, id string, patch *domain.VehiclePatch) (*domain.Vehicle, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.EditVehicle")
	defer span.End()
	span.SetAttributes(attribute.String("vehicle.id", id))

	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	return s.updateIn(ctx, id, (*storage.Tx).ForSale, (*storage.Tx).SetForSale, func(v *domain.Vehicle) error {
		patch.Apply(v)
		return nil
	})
}

// ChangeType moves a vehicle between the carros and motos columns.
func (s *VehicleService) ChangeType(ctx context.Context, id string, t domain.VehicleType) (*domain.Vehicle, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.ChangeType")
	defer span.End()

	if !t.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "deve ser carro ou moto"}
	}
	return s.updateIn(ctx, id, (*storage.Tx).ForSale, (*storage.Tx).SetForSale, func(v *domain.Vehicle) error {
		v.Type = t
		return nil
	})
}

func (s *VehicleService) DeleteVehicle(ctx context.Context, id string) error {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.DeleteVehicle")
	defer span.End()

	var removed domain.Vehicle
	err := s.repo.Update(ctx, func(tx *storage.Tx) error {
		list, err := tx.ForSale()
		if err != nil {
			return err
		}
		i := indexOfVehicle(list, id)
		if i < 0 {
			return notFound("vehicle", id)
		}
		removed = list[i]
		tx.SetForSale(removeAt(list, i))
		return nil
	})
	if err != nil {
		return err
	}

	s.dropBlobs(ctx, removed.Documents)
	s.logger.Info("vehicle deleted", zap.String("vehicle_id", id))
	return nil
}

// ============================================================
// Shared list helpers
// ============================================================

type listGetter func(*storage.Tx) ([]domain.Vehicle, error)
type listSetter func(*storage.Tx, []domain.Vehicle)

func (s *VehicleService) getFrom(ctx context.Context, id string, get listGetter) (*domain.Vehicle, error) {
	var found *domain.Vehicle
	err := s.repo.View(ctx, func(tx *storage.Tx) error {
		list, err := get(tx)
		if err != nil {
			return err
		}
		if i := indexOfVehicle(list, id); i >= 0 {
			found = &list[i]
			return nil
		}
		return notFound("vehicle", id)
	})
	return found, err
}

// updateIn applies mutate to one vehicle of a list and commits the list.
func (s *VehicleService) updateIn(ctx context.Context, id string, get listGetter, set listSetter, mutate func(*domain.Vehicle) error) (*domain.Vehicle, error) {
	var updated domain.Vehicle
	err := s.repo.Update(ctx, func(tx *storage.Tx) error {
		list, err := get(tx)
		if err != nil {
			return err
		}
		i := indexOfVehicle(list, id)
		if i < 0 {
			return notFound("vehicle", id)
		}
		if err := mutate(&list[i]); err != nil {
			return err
		}
		updated = list[i]
		set(tx, list)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// dropBlobs deletes stored documents after their vehicle is gone.
// Failures only leave orphaned blobs, so they are logged.
func (s *VehicleService) dropBlobs(ctx context.Context, docs []domain.Attachment) {
	if s.blobs == nil {
		return
	}
	for _, d := range docs {
		if d.StorageKey == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, d.StorageKey); err != nil {
			s.logger.Warn("failed to delete document blob",
				zap.String("storage_key", d.StorageKey),
				zap.Error(err),
			)
		}
	}
}
