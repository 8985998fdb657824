package domain

import (
	"encoding/json"
	"time"
)

// VehicleStatus is the lifecycle stage of a vehicle.
type VehicleStatus string

const (
	StatusForSale    VehicleStatus = "a-venda"
	StatusOnTime     VehicleStatus = "em-dia"
	StatusDelinquent VehicleStatus = "inadimplente"
	StatusPaidOff    VehicleStatus = "quitado"
)

// Valid reports whether s is a known status.
func (s VehicleStatus) Valid() bool {
	switch s {
	case StatusForSale, StatusOnTime, StatusDelinquent, StatusPaidOff:
		return true
	}
	return false
}

// VehicleType splits the inventory into columns and selects the commission rate.
type VehicleType string

const (
	TypeCar        VehicleType = "carro"
	TypeMotorcycle VehicleType = "moto"
)

func (t VehicleType) Valid() bool {
	return t == TypeCar || t == TypeMotorcycle
}

// Attachment is document metadata; the bytes live in the blob store.
type Attachment struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Size       int64      `json:"size"`
	Type       string     `json:"type,omitempty"`
	StorageKey string     `json:"storageKey,omitempty"`
	UploadedAt *time.Time `json:"uploadedAt,omitempty"`
}

// Vehicle is the record shared by the for-sale, sold and archived lists.
// Fields beyond the core six are filled as the vehicle moves through stages.
type Vehicle struct {
	ID     string        `json:"id"`
	Model  string        `json:"model"`
	Plate  string        `json:"plate"`
	Year   int           `json:"year"`
	Status VehicleStatus `json:"status"`
	Type   VehicleType   `json:"type"`

	Brand      string `json:"brand,omitempty"`
	Color      string `json:"color,omitempty"`
	Renavam    string `json:"renavam,omitempty"`
	Chassis    string `json:"chassis,omitempty"`
	CRLVNumber string `json:"crlvNumber,omitempty"`

	Client            string       `json:"client,omitempty"`
	Buyers            int          `json:"buyers,omitempty"`
	Price             *Money       `json:"price,omitempty"`
	Notes             string       `json:"notes,omitempty"`
	SpecialConditions string       `json:"specialConditions,omitempty"`
	Documents         []Attachment `json:"documents,omitempty"`

	SoldDate    string `json:"soldDate,omitempty"`
	NextDueDate string `json:"nextDueDate,omitempty"`

	CPF              string    `json:"cpf,omitempty"`
	Phone            string    `json:"telefone,omitempty"`
	RG               string    `json:"rg,omitempty"`
	MaritalStatus    string    `json:"estadoCivil,omitempty"`
	Profession       string    `json:"profissao,omitempty"`
	BirthDate        string    `json:"nascimento,omitempty"`
	Address          string    `json:"endereco,omitempty"`
	CustomerNotes    string    `json:"observacoes,omitempty"`
	DownPayment      *Money    `json:"entrada,omitempty"`
	TotalValue       *Money    `json:"valorTotal,omitempty"`
	Installments     int       `json:"parcelas,omitempty"`
	InstallmentValue *Money    `json:"valorParcela,omitempty"`
	CommissionValue  *Money    `json:"comissao,omitempty"`
	ContractText     string    `json:"contractText,omitempty"`
	Payments         []Payment `json:"payments,omitempty"`

	PhaseID      string `json:"phaseId,omitempty"`
	ArchivedYear int    `json:"archivedYear,omitempty"`
}

// UnmarshalJSON also accepts the "phone" key written by older archive records.
func (v *Vehicle) UnmarshalJSON(b []byte) error {
	type plain Vehicle
	aux := struct {
		*plain
		LegacyPhone string `json:"phone"`
	}{plain: (*plain)(v)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if v.Phone == "" {
		v.Phone = aux.LegacyPhone
	}
	return nil
}

// Public returns a copy without customer identity and financial fields,
// for the read-only lookup screens.
func (v Vehicle) Public() Vehicle {
	return Vehicle{
		ID:           v.ID,
		Model:        v.Model,
		Plate:        v.Plate,
		Year:         v.Year,
		Status:       v.Status,
		Type:         v.Type,
		Brand:        v.Brand,
		Color:        v.Color,
		Client:       v.Client,
		SoldDate:     v.SoldDate,
		NextDueDate:  v.NextDueDate,
		ArchivedYear: v.ArchivedYear,
	}
}

// PaymentStatus is the state of one installment row.
type PaymentStatus string

const (
	PaymentPaid      PaymentStatus = "Paga"
	PaymentUnpaid    PaymentStatus = "Não paga"
	PaymentLate      PaymentStatus = "Atrasada"
	PaymentAgreement PaymentStatus = "Acordo"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentUnpaid, PaymentLate, PaymentAgreement:
		return true
	}
	return false
}

// Payment is one row of the installment sheet (planilha).
type Payment struct {
	ID      string        `json:"id"`
	Number  int           `json:"numero"`
	DueDate string        `json:"vencimento"`
	Value   Money         `json:"valor"`
	Status  PaymentStatus `json:"status"`
	Note    string        `json:"observacao,omitempty"`
}

// VehicleDraft is the body for POST /v1/vehicles/for-sale.
type VehicleDraft struct {
	Model      string      `json:"model"`
	Plate      string      `json:"plate"`
	Year       int         `json:"year" validate:"omitempty,min=1900,max=2100"`
	Type       VehicleType `json:"type" validate:"omitempty,oneof=carro moto"`
	Price      *Money      `json:"price"`
	Brand      string      `json:"brand"`
	Color      string      `json:"color"`
	Renavam    string      `json:"renavam"`
	Chassis    string      `json:"chassis"`
	CRLVNumber string      `json:"crlvNumber"`
	Notes      string      `json:"notes"`
}

// VehiclePatch carries the editable fields; nil means unchanged.
type VehiclePatch struct {
	Model             *string      `json:"model"`
	Plate             *string      `json:"plate"`
	Year              *int         `json:"year" validate:"omitempty,min=1900,max=2100"`
	Type              *VehicleType `json:"type" validate:"omitempty,oneof=carro moto"`
	Price             *Money       `json:"price"`
	Notes             *string      `json:"notes"`
	SpecialConditions *string      `json:"specialConditions"`
	Brand             *string      `json:"brand"`
	Color             *string      `json:"color"`
	Renavam           *string      `json:"renavam"`
	Chassis           *string      `json:"chassis"`
	CRLVNumber        *string      `json:"crlvNumber"`
	Client            *string      `json:"client"`
	NextDueDate       *string      `json:"nextDueDate" validate:"omitempty,datetime=2006-01-02"`
	ContractText      *string      `json:"contractText"`
}

// Apply copies the non-nil fields onto v.
func (p VehiclePatch) Apply(v *Vehicle) {
	setString(&v.Model, p.Model)
	setString(&v.Plate, p.Plate)
	setString(&v.Notes, p.Notes)
	setString(&v.SpecialConditions, p.SpecialConditions)
	setString(&v.Brand, p.Brand)
	setString(&v.Color, p.Color)
	setString(&v.Renavam, p.Renavam)
	setString(&v.Chassis, p.Chassis)
	setString(&v.CRLVNumber, p.CRLVNumber)
	setString(&v.Client, p.Client)
	setString(&v.NextDueDate, p.NextDueDate)
	setString(&v.ContractText, p.ContractText)
	if p.Year != nil {
		v.Year = *p.Year
	}
	if p.Type != nil {
		v.Type = *p.Type
	}
	if p.Price != nil {
		price := *p.Price
		v.Price = &price
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// FilterKey selects the single active filter on the inventory screens.
type FilterKey string

const (
	FilterNone  FilterKey = "none"
	FilterYear  FilterKey = "year"
	FilterType  FilterKey = "type"
	FilterPhase FilterKey = "phase"
)

// ForSaleQuery is the search state of the À Venda screen.
type ForSaleQuery struct {
	Q      string
	Filter FilterKey
	Value  string
}

// ForSaleBoard is the response for GET /v1/vehicles/for-sale.
type ForSaleBoard struct {
	Cars        []Vehicle `json:"carros"`
	Motorcycles []Vehicle `json:"motos"`
	Years       []int     `json:"years"`
	Total       int       `json:"total"`
}
