package service

import (
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/format"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

// ============================================================
// Sell: À Venda → Vendidos, commission and client book
// ============================================================

// Sell moves a for-sale vehicle to the head of the sold list, records the
// buyer, optionally saves the buyer in the client book and generates the
// commission. Everything is committed together.
func (s *VehicleService) Sell(ctx context.Context, id string, req *domain.SaleRequest) (*domain.SaleResult, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.Sell")
	defer span.End()
	span.SetAttributes(attribute.String("vehicle.id", id))

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	now := s.now()
	result := &domain.SaleResult{}

	err := s.repo.Update(ctx, func(tx *storage.Tx) error {
		forSale, err := tx.ForSale()
		if err != nil {
			return err
		}
		i := indexOfVehicle(forSale, id)
		if i < 0 {
			return notFound("vehicle", id)
		}

		sold := soldFromSale(forSale[i], req, now)
		for j := range sold.Payments {
			if sold.Payments[j].ID == "" {
				sold.Payments[j].ID = newID("p-")
			}
		}

		soldList, err := tx.Sold()
		if err != nil {
			return err
		}
		tx.SetForSale(removeAt(forSale, i))
		tx.SetSold(prepend(sold, soldList))
		result.Vehicle = sold

		rates, err := tx.Rates()
		if err != nil {
			return err
		}
		commissions, err := tx.Commissions()
		if err != nil {
			return err
		}
		c := domain.Commission{
			ID:      newID("cm-"),
			Type:    sold.Type,
			Client:  sold.Client,
			Vehicle: sold.Model,
			Plate:   sold.Plate,
			Date:    sold.SoldDate,
			Amount:  rates.For(sold.Type),
			Status:  domain.CommissionPending,
		}
		tx.SetCommissions(prepend(c, commissions))
		result.Commission = c

		if req.ShouldSaveClient() {
			clients, err := tx.Clients()
			if err != nil {
				return err
			}
			record := domain.ClientFromCustomer(req.Customer)
			record.ID = req.ClientID
			updated, saved := upsertClient(clients, record)
			tx.SetClients(updated)
			result.Client = &saved
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrVehicleSold(string(result.Vehicle.Type))
	s.metrics.IncrCommissionCreated(string(result.Commission.Type))
	s.logger.Info("vehicle sold",
		zap.String("vehicle_id", id),
		zap.String("client", result.Vehicle.Client),
		zap.String("commission_id", result.Commission.ID),
		zap.String("commission_amount", result.Commission.Amount.StringFixed(2)),
	)
	return result, nil
}

// soldFromSale merges the sell form over the for-sale record. Empty form
// fields keep what the vehicle already had.
func soldFromSale(v domain.Vehicle, req *domain.SaleRequest, now time.Time) domain.Vehicle {
	c, t := req.Customer, req.Terms

	v.Status = domain.StatusOnTime
	v.SoldDate = stringOr(t.SaleDate, now.Format(domain.DateLayout))
	v.Client = stringOr(c.Name, v.Client)
	v.NextDueDate = stringOr(t.FirstDueDate, v.NextDueDate)
	v.Price = moneyOr(t.FinancedValue, v.Price)
	v.DownPayment = moneyOr(t.DownPayment, nil)
	v.InstallmentValue = moneyOr(t.InstallmentValue, v.InstallmentValue)
	if t.Installments > 0 {
		v.Installments = t.Installments
	}

	v.Phone = c.Phone
	v.CPF = c.CPF
	v.RG = c.RG
	v.MaritalStatus = c.MaritalStatus
	v.Profession = c.Profession
	v.BirthDate = c.BirthDate
	v.Address = c.Address
	v.CustomerNotes = c.Notes

	docs := make([]domain.Attachment, 0, len(v.Documents)+len(c.Documents))
	docs = append(docs, v.Documents...)
	v.Documents = append(docs, c.Documents...)

	if len(t.Payments) > 0 {
		v.Payments = append([]domain.Payment(nil), t.Payments...)
	}
	v.ContractText = stringOr(t.ContractText, v.ContractText)
	v.Notes = stringOr(t.Notes, v.Notes)
	return v
}

// upsertClient replaces the record with the same CPF digits or, when no CPF
// matches, the record with the same id, and otherwise prepends it. The
// stored record keeps the id it already had, so ids stay unique.
func upsertClient(clients []domain.ClientRecord, next domain.ClientRecord) ([]domain.ClientRecord, domain.ClientRecord) {
	idx := -1
	if cpf := format.DigitsOnly(next.CPF); cpf != "" {
		idx = slices.IndexFunc(clients, func(c domain.ClientRecord) bool {
			return format.DigitsOnly(c.CPF) == cpf
		})
	}
	if idx < 0 && next.ID != "" {
		idx = slices.IndexFunc(clients, func(c domain.ClientRecord) bool {
			return c.ID == next.ID
		})
	}

	if idx >= 0 {
		next.ID = clients[idx].ID
		clients[idx] = next
		return clients, next
	}
	if next.ID == "" {
		next.ID = newID("c-")
	}
	return prepend(next, clients), next
}
