package domain

import (
	"strings"
	"time"
)

// SaleCustomer is the buyer section of the sell form.
type SaleCustomer struct {
	Name          string       `json:"nome"`
	Phone         string       `json:"telefone"`
	CPF           string       `json:"cpf"`
	RG            string       `json:"rg"`
	MaritalStatus string       `json:"estadoCivil"`
	Profession    string       `json:"profissao"`
	BirthDate     string       `json:"nascimento" validate:"omitempty,datetime=2006-01-02"`
	Address       string       `json:"endereco"`
	Notes         string       `json:"observacoes"`
	Documents     []Attachment `json:"documentos"`
}

// SaleTerms is the payment section of the sell form.
type SaleTerms struct {
	DownPayment      *Money    `json:"valorEntrada"`
	FinancedValue    *Money    `json:"valorFinanciado"`
	SaleDate         string    `json:"dataVenda" validate:"omitempty,datetime=2006-01-02"`
	Installments     int       `json:"parcelas" validate:"min=0,max=360"`
	FirstDueDate     string    `json:"vencimento" validate:"omitempty,datetime=2006-01-02"`
	InstallmentValue *Money    `json:"valorParcela"`
	Notes            string    `json:"observacoes"`
	ContractText     string    `json:"contractText"`
	Payments         []Payment `json:"payments" validate:"dive"`
}

// SaleRequest is the body for POST /v1/vehicles/for-sale/{id}/sell.
type SaleRequest struct {
	Customer SaleCustomer `json:"customer"`
	Terms    SaleTerms    `json:"venda"`
	// ClientID is the saved client picked in the form, if any.
	ClientID string `json:"clientId"`
	// SaveClient defaults to true.
	SaveClient *bool `json:"saveClient"`
}

// ShouldSaveClient reports whether the buyer goes into the client book.
func (r SaleRequest) ShouldSaveClient() bool {
	if r.SaveClient != nil && !*r.SaveClient {
		return false
	}
	c := r.Customer
	return strings.TrimSpace(c.Name) != "" || strings.TrimSpace(c.CPF) != "" || strings.TrimSpace(c.Phone) != ""
}

// SaleResult is everything a sale committed.
type SaleResult struct {
	Vehicle    Vehicle       `json:"vehicle"`
	Commission Commission    `json:"commission"`
	Client     *ClientRecord `json:"client,omitempty"`
}

// SoldQuery combines the Vendidos filters; every non-empty field applies.
type SoldQuery struct {
	Q      string
	Plate  string
	Model  string
	Client string
	From   string
	To     string
}

// ActiveFilters counts the non-empty filters besides Q.
func (q SoldQuery) ActiveFilters() int {
	n := 0
	for _, s := range []string{q.Plate, q.Model, q.Client, q.From, q.To} {
		if s != "" {
			n++
		}
	}
	return n
}

// Severity buckets lateness for the card badge.
type Severity string

const (
	SeverityGreen  Severity = "verde"
	SeverityYellow Severity = "amarelo"
	SeverityRed    Severity = "vermelho"
)

// SoldEntry is a sold vehicle with its computed lateness.
type SoldEntry struct {
	Vehicle      Vehicle  `json:"vehicle"`
	LateMonths   int      `json:"lateMonths"`
	LateSeverity Severity `json:"lateSeverity"`
}

// SoldBoard is the response for GET /v1/vehicles/sold.
type SoldBoard struct {
	OnTime        []SoldEntry `json:"emDia"`
	Delinquent    []SoldEntry `json:"inadimplente"`
	ActiveFilters int         `json:"activeFilters"`
	Total         int         `json:"total"`
}

// DateLayout is the ISO day format used by every date field.
const DateLayout = "2006-01-02"

// LateMonths counts whole months of delay after nextDue, rounding a partial
// month up. A vehicle is not late on the due day itself.
func LateMonths(nextDue string, now time.Time) int {
	if nextDue == "" {
		return 0
	}
	due, err := time.ParseInLocation(DateLayout, nextDue, now.Location())
	if err != nil {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !today.After(due) {
		return 0
	}

	months := (today.Year()-due.Year())*12 + int(today.Month()) - int(due.Month())
	if today.Day() > due.Day() {
		months++
	}
	return max(1, months)
}

// LateSeverity maps a month count onto the badge colour.
func LateSeverity(months int) Severity {
	switch {
	case months <= 1:
		return SeverityGreen
	case months <= 3:
		return SeverityYellow
	default:
		return SeverityRed
	}
}

// Today formats now as an ISO day.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}
