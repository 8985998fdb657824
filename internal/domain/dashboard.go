package domain

// Dashboard is the response for GET /v1/dashboard.
type Dashboard struct {
	Total       int              `json:"total"`
	ForSale     StageCount       `json:"aVenda"`
	Sold        SoldCount        `json:"vendidos"`
	Archived    int              `json:"arquivoMorto"`
	Overdue     int              `json:"atrasados"`
	Commissions CommissionTotals `json:"comissoes"`
	GeneratedAt string           `json:"generatedAt"`
}

// StageCount splits a stage by vehicle type.
type StageCount struct {
	Cars        int `json:"carros"`
	Motorcycles int `json:"motos"`
	Total       int `json:"total"`
}

// SoldCount splits the sold stage by payment situation.
type SoldCount struct {
	OnTime     int `json:"emDia"`
	Delinquent int `json:"inadimplente"`
	Total      int `json:"total"`
}
