package domain

// ClientRecord is a saved buyer, reusable across sales.
type ClientRecord struct {
	ID            string `json:"id"`
	Name          string `json:"nome" validate:"required"`
	Phone         string `json:"telefone"`
	CPF           string `json:"cpf"`
	RG            string `json:"rg"`
	MaritalStatus string `json:"estadoCivil"`
	Profession    string `json:"profissao"`
	BirthDate     string `json:"nascimento" validate:"omitempty,datetime=2006-01-02"`
	Address       string `json:"endereco"`
	Notes         string `json:"observacoes"`
}

// ClientFromCustomer builds a record from the sell form.
func ClientFromCustomer(c SaleCustomer) ClientRecord {
	return ClientRecord{
		Name:          c.Name,
		Phone:         c.Phone,
		CPF:           c.CPF,
		RG:            c.RG,
		MaritalStatus: c.MaritalStatus,
		Profession:    c.Profession,
		BirthDate:     c.BirthDate,
		Address:       c.Address,
		Notes:         c.Notes,
	}
}
