package domain

// Backup maps every stored key to its raw JSON text.
type Backup map[string]string

// ImportResult reports which keys were written and which were ignored.
type ImportResult struct {
	Imported []string `json:"imported"`
	Skipped  []string `json:"skipped"`
}
