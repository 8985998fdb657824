package domain

import "github.com/shopspring/decimal"

// CommissionStatus tracks whether the seller was paid.
type CommissionStatus string

const (
	CommissionPending  CommissionStatus = "a-receber"
	CommissionReceived CommissionStatus = "recebido"
)

// Commission is the flat amount owed per sale.
type Commission struct {
	ID      string           `json:"id"`
	Type    VehicleType      `json:"type"`
	Client  string           `json:"client"`
	Vehicle string           `json:"vehicle"`
	Plate   string           `json:"plate"`
	Date    string           `json:"date"`
	Amount  Money            `json:"amount"`
	Status  CommissionStatus `json:"status"`
}

// CommissionRates is the per-type flat commission table.
type CommissionRates struct {
	Car        Money `json:"carro"`
	Motorcycle Money `json:"moto"`
}

// DefaultCommissionRates is used until rates are saved.
func DefaultCommissionRates() CommissionRates {
	return CommissionRates{Car: MoneyFromInt(200), Motorcycle: MoneyFromInt(100)}
}

// For picks the rate for t; anything but moto is charged as carro.
func (r CommissionRates) For(t VehicleType) Money {
	if t == TypeMotorcycle {
		return r.Motorcycle
	}
	return r.Car
}

// Normalized rounds both rates to whole reais and clamps them at zero.
func (r CommissionRates) Normalized() CommissionRates {
	clamp := func(m Money) Money {
		d := m.Round(0)
		if d.IsNegative() {
			d = decimal.Zero
		}
		return NewMoney(d)
	}
	return CommissionRates{Car: clamp(r.Car), Motorcycle: clamp(r.Motorcycle)}
}

// CommissionDraft is the body for POST /v1/commissions.
type CommissionDraft struct {
	Type    VehicleType `json:"type" validate:"required,oneof=carro moto"`
	Client  string      `json:"client" validate:"required"`
	Vehicle string      `json:"vehicle" validate:"required"`
	Plate   string      `json:"plate"`
	Date    string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// CommissionTab filters the commission list.
type CommissionTab string

const (
	TabAll      CommissionTab = "todas"
	TabPending  CommissionTab = "a-receber"
	TabReceived CommissionTab = "recebidas"
)

// CommissionTotals are computed over every commission regardless of tab.
type CommissionTotals struct {
	Pending       Money `json:"aReceber"`
	Received      Money `json:"recebido"`
	Total         Money `json:"total"`
	PendingCount  int   `json:"aReceberCount"`
	ReceivedCount int   `json:"recebidoCount"`
}

// CommissionList is the response for GET /v1/commissions.
type CommissionList struct {
	Items  []Commission     `json:"items"`
	Totals CommissionTotals `json:"totals"`
}

// SumCommissions totals the list by status.
func SumCommissions(items []Commission) CommissionTotals {
	var t CommissionTotals
	pending, received := decimal.Zero, decimal.Zero
	for _, c := range items {
		switch c.Status {
		case CommissionPending:
			pending = pending.Add(c.Amount.Decimal)
			t.PendingCount++
		case CommissionReceived:
			received = received.Add(c.Amount.Decimal)
			t.ReceivedCount++
		}
	}
	t.Pending = NewMoney(pending)
	t.Received = NewMoney(received)
	t.Total = NewMoney(pending.Add(received))
	return t
}
