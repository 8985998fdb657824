package service

import (
	"context"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

// ============================================================
// Arquivo Morto: phases and archived vehicles
// ============================================================

// ListArchive groups the archived vehicles per phase, in phase order.
// Vehicles pointing at a phase that no longer exists get a trailing
// column of their own.
func (s *VehicleService) ListArchive(ctx context.Context, q domain.ArchiveQuery) (*domain.ArchiveBoard, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.ListArchive")
	defer span.End()

	filter := q.Filter
	if filter == "" {
		filter = domain.FilterNone
	}
	switch filter {
	case domain.FilterNone, domain.FilterYear, domain.FilterType, domain.FilterPhase:
	default:
		return nil, &domain.ErrValidation{Field: "filter", Message: "use none, year, type ou phase"}
	}

	var (
		list   []domain.Vehicle
		phases []domain.Phase
	)
	if err := s.repo.View(ctx, func(tx *storage.Tx) (err error) {
		if list, err = tx.Archived(); err != nil {
			return err
		}
		phases, err = tx.Phases()
		return err
	}); err != nil {
		return nil, err
	}

	board := &domain.ArchiveBoard{Columns: make([]domain.PhaseColumn, 0, len(phases)+1)}
	columnOf := make(map[string]int, len(phases))
	for _, p := range phases {
		columnOf[p.ID] = len(board.Columns)
		board.Columns = append(board.Columns, domain.PhaseColumn{Phase: p, Vehicles: []domain.Vehicle{}})
	}

	years := make([]int, 0, len(list))
	orphans := make(map[string]int)
	value := strings.TrimSpace(q.Value)
	for _, v := range list {
		years = append(years, archivedYearOf(v))

		if !matchesAny(q.Q, v.Model, v.Plate, v.Client, yearString(v.Year), yearString(v.ArchivedYear)) {
			continue
		}
		if value != "" && !matchesArchiveFilter(v, filter, value) {
			continue
		}

		idx, ok := columnOf[v.PhaseID]
		if !ok {
			if idx, ok = orphans[v.PhaseID]; !ok {
				idx = len(board.Columns)
				orphans[v.PhaseID] = idx
				board.Columns = append(board.Columns, domain.PhaseColumn{
					Phase:    domain.Phase{ID: v.PhaseID, Title: orphanTitle(v.PhaseID)},
					Vehicles: []domain.Vehicle{},
					Orphan:   true,
				})
			}
		}
		board.Columns[idx].Vehicles = append(board.Columns[idx].Vehicles, v)
		board.Total++
	}
	board.Years = distinctYearsDesc(years)

	span.SetAttributes(attribute.Int("vehicles.matched", board.Total))
	return board, nil
}

func matchesArchiveFilter(v domain.Vehicle, filter domain.FilterKey, value string) bool {
	switch filter {
	case domain.FilterYear:
		return strconv.Itoa(archivedYearOf(v)) == value
	case domain.FilterType:
		return string(v.Type) == value
	case domain.FilterPhase:
		return v.PhaseID == value
	}
	return true
}

// archivedYearOf falls back to the model year for records archived before
// archivedYear was tracked.
func archivedYearOf(v domain.Vehicle) int {
	if v.ArchivedYear != 0 {
		return v.ArchivedYear
	}
	return v.Year
}

func orphanTitle(id string) string {
	if id == "" {
		return "Sem fase"
	}
	return "Fase removida (" + id + ")"
}

func indexOfPhase(list []domain.Phase, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *VehicleService) GetArchived(ctx context.Context, id string) (*domain.Vehicle, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.GetArchived")
	defer span.End()

	return s.getFrom(ctx, id, (*storage.Tx).Archived)
}

func (s *VehicleService) ListPhases(ctx context.Context) ([]domain.Phase, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.ListPhases")
	defer span.End()

	var phases []domain.Phase
	err := s.repo.View(ctx, func(tx *storage.Tx) (err error) {
		phases, err = tx.Phases()
		return err
	})
	return phases, err
}

func (s *VehicleService) AddPhase(ctx context.Context, draft *domain.PhaseDraft) (*domain.Phase, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.AddPhase")
	defer span.End()

	draft.Title = strings.TrimSpace(draft.Title)
	if err := validateStruct(draft); err != nil {
		return nil, err
	}

	p := domain.Phase{ID: newID("fase-"), Title: draft.Title}
	err := s.repo.Update(ctx, func(tx *storage.Tx) error {
		phases, err := tx.Phases()
		if err != nil {
			return err
		}
		tx.SetPhases(prepend(p, phases))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("phase added", zap.String("phase_id", p.ID), zap.String("title", p.Title))
	return &p, nil
}

// DeletePhase removes a phase and moves its vehicles to the first phase
// left. The last phase cannot be removed.
func (s *VehicleService) DeletePhase(ctx context.Context, id string) error {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.DeletePhase")
	defer span.End()
	span.SetAttributes(attribute.String("phase.id", id))

	moved := 0
	err := s.repo.Update(ctx, func(tx *storage.Tx) error {
		phases, err := tx.Phases()
		if err != nil {
			return err
		}
		i := indexOfPhase(phases, id)
		if i < 0 {
			return notFound("phase", id)
		}
		if len(phases) <= 1 {
			return &domain.ErrConflict{Message: "o arquivo precisa de pelo menos uma fase"}
		}
		remaining := removeAt(phases, i)
		target := remaining[0].ID

		list, err := tx.Archived()
		if err != nil {
			return err
		}
		for j := range list {
			if list[j].PhaseID == id {
				list[j].PhaseID = target
				moved++
			}
		}
		tx.SetPhases(remaining)
		if moved > 0 {
			tx.SetArchived(list)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("phase deleted", zap.String("phase_id", id), zap.Int("vehicles_moved", moved))
	return nil
}

// MoveToPhase drops an archived vehicle into another phase column.
func (s *VehicleService) MoveToPhase(ctx context.Context, vehicleID, phaseID string) (*domain.Vehicle, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.MoveToPhase")
	defer span.End()
	span.SetAttributes(attribute.String("vehicle.id", vehicleID), attribute.String("phase.id", phaseID))

	var updated domain.Vehicle
	err := s.repo.Update(ctx, func(tx *storage.Tx) error {
		phases, err := tx.Phases()
		if err != nil {
			return err
		}
		if indexOfPhase(phases, phaseID) < 0 {
			return notFound("phase", phaseID)
		}
		list, err := tx.Archived()
		if err != nil {
			return err
		}
		i := indexOfVehicle(list, vehicleID)
		if i < 0 {
			return notFound("vehicle", vehicleID)
		}
		list[i].PhaseID = phaseID
		updated = list[i]
		tx.SetArchived(list)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
