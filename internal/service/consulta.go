package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
)

// ============================================================
// Consulta: read-only lookup across every stage
// ============================================================

// Search matches q against every vehicle and returns them without
// customer identity or financial data.
func (s *VehicleService) Search(ctx context.Context, q string) ([]domain.Vehicle, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.Search")
	defer span.End()

	all, err := s.repo.AllVehicles(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Vehicle, 0, len(all))
	for _, v := range all {
		if matchesAny(q, v.Model+" "+v.Plate+" "+yearString(v.Year)+" "+v.Client) {
			out = append(out, v.Public())
		}
	}
	span.SetAttributes(attribute.Int("vehicles.matched", len(out)))
	return out, nil
}

// Lookup finds one vehicle in any stage, stripped like Search.
func (s *VehicleService) Lookup(ctx context.Context, id string) (*domain.Vehicle, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.Lookup")
	defer span.End()

	all, err := s.repo.AllVehicles(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOfVehicle(all, id); i >= 0 {
		pub := all[i].Public()
		return &pub, nil
	}
	return nil, notFound("vehicle", id)
}
