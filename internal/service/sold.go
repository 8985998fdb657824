package service

import (
	"bytes"
	"context"
	"html/template"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

// ============================================================
// Vendidos: listing, status, payments
// ============================================================

func (s *VehicleService) ListSold(ctx context.Context, q domain.SoldQuery) (*domain.SoldBoard, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.ListSold")
	defer span.End()

	var list []domain.Vehicle
	if err := s.repo.View(ctx, func(tx *storage.Tx) (err error) {
		list, err = tx.Sold()
		return err
	}); err != nil {
		return nil, err
	}

	now := s.now()
	board := &domain.SoldBoard{
		OnTime:        []domain.SoldEntry{},
		Delinquent:    []domain.SoldEntry{},
		ActiveFilters: q.ActiveFilters(),
	}
	for _, v := range list {
		if v.Status == domain.StatusPaidOff || !matchesSold(v, q) {
			continue
		}

		months := domain.LateMonths(v.NextDueDate, now)
		entry := domain.SoldEntry{Vehicle: v, LateMonths: months, LateSeverity: domain.LateSeverity(months)}
		if v.Status == domain.StatusDelinquent {
			board.Delinquent = append(board.Delinquent, entry)
		} else {
			board.OnTime = append(board.OnTime, entry)
		}
	}
	board.Total = len(board.OnTime) + len(board.Delinquent)

	span.SetAttributes(attribute.Int("vehicles.matched", board.Total))
	return board, nil
}

// matchesSold applies every non-empty filter of q.
func matchesSold(v domain.Vehicle, q domain.SoldQuery) bool {
	if !matchesAny(q.Q, v.Model+" "+v.Plate+" "+yearString(v.Year)+" "+v.Client) {
		return false
	}
	if !matchesAny(q.Plate, v.Plate) || !matchesAny(q.Model, v.Model) || !matchesAny(q.Client, v.Client) {
		return false
	}
	from, to := strings.TrimSpace(q.From), strings.TrimSpace(q.To)
	if from == "" && to == "" {
		return true
	}
	if v.SoldDate == "" {
		return false
	}
	if from != "" && v.SoldDate < from {
		return false
	}
	if to != "" && v.SoldDate > to {
		return false
	}
	return true
}

func (s *VehicleService) GetSold(ctx context.Context, id string) (*domain.Vehicle, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.GetSold")
	defer span.End()

	return s.getFrom(ctx, id, (*storage.Tx).Sold)
}

func (s *VehicleService) UpdateSold(ctx context.Context, id string, patch *domain.VehiclePatch) (*domain.Vehicle, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.UpdateSold")
	defer span.End()
	span.SetAttributes(attribute.String("vehicle.id", id))

	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	return s.updateIn(ctx, id, (*storage.Tx).Sold, (*storage.Tx).SetSold, func(v *domain.Vehicle) error {
		patch.Apply(v)
		return nil
	})
}

// SetSoldStatus moves a vehicle between the em-dia and inadimplente columns.
// Quitado archives it.
func (s *VehicleService) SetSoldStatus(ctx context.Context, id string, status domain.VehicleStatus) (*domain.Vehicle, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.SetSoldStatus")
	defer span.End()
	span.SetAttributes(attribute.String("vehicle.id", id), attribute.String("vehicle.status", string(status)))

	switch status {
	case domain.StatusOnTime, domain.StatusDelinquent:
	case domain.StatusPaidOff:
		return s.Archive(ctx, id)
	default:
		return nil, &domain.ErrValidation{Field: "status", Message: "deve ser em-dia, inadimplente ou quitado"}
	}

	v, err := s.updateIn(ctx, id, (*storage.Tx).Sold, (*storage.Tx).SetSold, func(v *domain.Vehicle) error {
		v.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("sold vehicle status changed",
		zap.String("vehicle_id", id),
		zap.String("status", string(status)),
	)
	return v, nil
}

// Archive moves a sold vehicle to Arquivo Morto under the phase of the
// current year, creating that phase when it does not exist yet.
func (s *VehicleService) Archive(ctx context.Context, id string) (*domain.Vehicle, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.Archive")
	defer span.End()
	span.SetAttributes(attribute.String("vehicle.id", id))

	year := s.now().Year()
	phase := domain.YearPhase(year)

	var archived domain.Vehicle
	err := s.repo.Update(ctx, func(tx *storage.Tx) error {
		sold, err := tx.Sold()
		if err != nil {
			return err
		}
		i := indexOfVehicle(sold, id)
		if i < 0 {
			return notFound("vehicle", id)
		}
		archived = sold[i]
		archived.Status = domain.StatusPaidOff
		archived.ArchivedYear = year
		archived.PhaseID = phase.ID

		list, err := tx.Archived()
		if err != nil {
			return err
		}
		phases, err := tx.Phases()
		if err != nil {
			return err
		}
		if indexOfPhase(phases, phase.ID) < 0 {
			tx.SetPhases(prepend(phase, phases))
		}

		tx.SetSold(removeAt(sold, i))
		tx.SetArchived(append(list, archived))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrVehicleArchived(string(archived.Type))
	s.logger.Info("vehicle archived",
		zap.String("vehicle_id", id),
		zap.String("phase_id", archived.PhaseID),
		zap.Int("archived_year", year),
	)
	return &archived, nil
}

// UpdatePayments replaces the installment sheet of a sold vehicle.
func (s *VehicleService) UpdatePayments(ctx context.Context, id string, rows []domain.Payment) (*domain.Vehicle, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.UpdatePayments")
	defer span.End()
	span.SetAttributes(attribute.String("vehicle.id", id), attribute.Int("payments.count", len(rows)))

	payments := make([]domain.Payment, len(rows))
	for i, p := range rows {
		if p.Status == "" {
			p.Status = domain.PaymentUnpaid
		}
		if !p.Status.Valid() {
			return nil, &domain.ErrValidation{Field: "status", Message: "deve ser Paga, Não paga, Atrasada ou Acordo"}
		}
		if p.DueDate != "" {
			if err := validate.Var(p.DueDate, "datetime=2006-01-02"); err != nil {
				return nil, &domain.ErrValidation{Field: "vencimento", Message: "data deve estar no formato AAAA-MM-DD"}
			}
		}
		if p.ID == "" {
			p.ID = newID("p-")
		}
		if p.Number == 0 {
			p.Number = i + 1
		}
		payments[i] = p
	}

	return s.updateIn(ctx, id, (*storage.Tx).Sold, (*storage.Tx).SetSold, func(v *domain.Vehicle) error {
		v.Payments = payments
		return nil
	})
}

// ============================================================
// Planilha de parcelas
// ============================================================

var paymentSheetTmpl = template.Must(template.New("planilha").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width,initial-scale=1" />
    <title>Planilha - {{.Vehicle.Model}}</title>
    <style>
      body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Ubuntu,Cantarell,Noto Sans,sans-serif;padding:24px;}
      h1{margin:0 0 12px 0;font-size:22px;}
      .muted{color:#666;font-size:12px;margin-bottom:18px;}
      table{width:100%;border-collapse:collapse;margin-top:12px;}
      th,td{border:1px solid #ddd;padding:8px;font-size:12px;text-align:left;}
      th{background:#f5f5f5;}
    </style>
  </head>
  <body>
    <h1>Planilha de parcelas</h1>
    <div class="muted">{{.Vehicle.Model}} • {{.Vehicle.Plate}} • {{.Vehicle.Year}}{{if .Vehicle.Client}} • {{.Vehicle.Client}}{{end}}</div>
    <table>
      <thead><tr><th>#</th><th>Valor</th><th>Status</th><th>Vencimento</th><th>Observações</th></tr></thead>
      <tbody>
      {{- range .Rows}}
        <tr><td>{{.Number}}</td><td>{{.Value}}</td><td>{{.Status}}</td><td>{{.DueDate}}</td><td>{{.Note}}</td></tr>
      {{- end}}
      </tbody>
    </table>
    <script>
      window.onload = () => { try { window.print(); } catch(e) {} };
    </script>
  </body>
</html>
`))

type sheetRow struct {
	Number  int
	Value   string
	Status  domain.PaymentStatus
	DueDate string
	Note    string
}

// PaymentSheet renders the printable installment sheet of a sold vehicle.
// A vehicle without payments gets a single unpaid row.
func (s *VehicleService) PaymentSheet(ctx context.Context, id string) ([]byte, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.PaymentSheet")
	defer span.End()

	v, err := s.getFrom(ctx, id, (*storage.Tx).Sold)
	if err != nil {
		return nil, err
	}

	rows := make([]sheetRow, 0, max(1, len(v.Payments)))
	for _, p := range v.Payments {
		rows = append(rows, sheetRow{
			Number:  p.Number,
			Value:   p.Value.BRL(),
			Status:  p.Status,
			DueDate: p.DueDate,
			Note:    p.Note,
		})
	}
	if len(rows) == 0 {
		row := sheetRow{Number: 1, Value: "-", Status: domain.PaymentUnpaid, DueDate: v.NextDueDate}
		if v.InstallmentValue != nil {
			row.Value = v.InstallmentValue.BRL()
		}
		rows = append(rows, row)
	}

	var buf bytes.Buffer
	if err := paymentSheetTmpl.Execute(&buf, struct {
		Vehicle *domain.Vehicle
		Rows    []sheetRow
	}{v, rows}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
