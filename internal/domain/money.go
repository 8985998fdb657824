package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mgm-veiculos/mgm-api-go/internal/format"
)

// Money is a BRL amount. It serializes as a fixed two-decimal string and
// accepts JSON numbers, plain numeric strings and "R$ 1.234,56".
type Money struct {
	decimal.Decimal
}

// NewMoney wraps d.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MoneyFromInt builds a whole-real amount.
func MoneyFromInt(v int64) Money {
	return Money{Decimal: decimal.NewFromInt(v)}
}

// ParseMoney parses a BRL string (see format.ParseBRL).
func ParseMoney(s string) (Money, error) {
	d, err := format.ParseBRL(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Decimal: d}, nil
}

// MoneyPtr is a convenience for optional amounts.
func MoneyPtr(m Money) *Money {
	return &m
}

// BRL renders the amount for display.
func (m Money) BRL() string {
	return format.FormatBRL(m.Decimal)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.StringFixed(2))
}

func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		m.Decimal = decimal.Zero
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := format.ParseBRL(s)
		if err != nil {
			return fmt.Errorf("money: %w", err)
		}
		m.Decimal = d
		return nil
	}

	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	m.Decimal = d
	return nil
}
