package domain

import "fmt"

// Phase is a user-defined Arquivo Morto bucket.
type Phase struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// YearPhase is the bucket archived vehicles land in by default.
func YearPhase(year int) Phase {
	return Phase{ID: fmt.Sprintf("ano-%d", year), Title: fmt.Sprintf("Quitado • %d", year)}
}

// ArchiveQuery is the search state of the Arquivo Morto screen.
type ArchiveQuery struct {
	Q      string
	Filter FilterKey
	Value  string
}

// PhaseColumn groups archived vehicles under one phase. Orphan marks the
// trailing bucket for vehicles whose phase no longer exists.
type PhaseColumn struct {
	Phase    Phase     `json:"phase"`
	Vehicles []Vehicle `json:"vehicles"`
	Orphan   bool      `json:"orphan,omitempty"`
}

// ArchiveBoard is the response for GET /v1/archive.
type ArchiveBoard struct {
	Columns []PhaseColumn `json:"columns"`
	Years   []int         `json:"years"`
	Total   int           `json:"total"`
}

// PhaseDraft is the body for POST /v1/archive/phases.
type PhaseDraft struct {
	Title string `json:"title" validate:"required"`
}
