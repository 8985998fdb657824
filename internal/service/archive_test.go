package service_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

func columnIDs(board *domain.ArchiveBoard) map[string][]string {
	out := make(map[string][]string, len(board.Columns))
	for _, c := range board.Columns {
		out[c.Phase.ID] = ids(c.Vehicles)
	}
	return out
}

func TestListArchiveGroupsByPhase(t *testing.T) {
	f := demoFixture(t)

	board, err := f.vehicles.ListArchive(ctx, domain.ArchiveQuery{})
	require.NoError(t, err)

	require.Len(t, board.Columns, 2)
	assert.Equal(t, "ano-2024", board.Columns[0].Phase.ID)
	assert.Equal(t, []string{"24", "27"}, ids(board.Columns[0].Vehicles))
	assert.Equal(t, []string{"20"}, ids(board.Columns[1].Vehicles))
	assert.Equal(t, []int{2024, 2023}, board.Years)
	assert.Equal(t, 3, board.Total)
}

func TestListArchiveSearchAndFilters(t *testing.T) {
	f := demoFixture(t)

	tests := []struct {
		name  string
		query domain.ArchiveQuery
		want  map[string][]string
	}{
		{"client", domain.ArchiveQuery{Q: "sandra"}, map[string][]string{"ano-2024": {"27"}, "ano-2023": {}}},
		{"archived year text", domain.ArchiveQuery{Q: "2023"}, map[string][]string{"ano-2024": {}, "ano-2023": {"20"}}},
		{"type", domain.ArchiveQuery{Filter: domain.FilterType, Value: "moto"}, map[string][]string{"ano-2024": {"27"}, "ano-2023": {}}},
		{"year", domain.ArchiveQuery{Filter: domain.FilterYear, Value: "2024"}, map[string][]string{"ano-2024": {"24", "27"}, "ano-2023": {}}},
		{"phase", domain.ArchiveQuery{Filter: domain.FilterPhase, Value: "ano-2023"}, map[string][]string{"ano-2024": {}, "ano-2023": {"20"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board, err := f.vehicles.ListArchive(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, columnIDs(board))
		})
	}
}

func TestListArchiveOrphanBucket(t *testing.T) {
	seed := storage.DemoSeed()
	seed.Archived[0].PhaseID = "fase-apagada"
	f := newFixture(t, seed)

	board, err := f.vehicles.ListArchive(ctx, domain.ArchiveQuery{})
	require.NoError(t, err)

	require.Len(t, board.Columns, 3)
	last := board.Columns[2]
	assert.True(t, last.Orphan)
	assert.Equal(t, "fase-apagada", last.Phase.ID)
	assert.Equal(t, []string{"20"}, ids(last.Vehicles))
	assert.Empty(t, board.Columns[1].Vehicles)
}

func TestAddPhase(t *testing.T) {
	f := demoFixture(t)

	p, err := f.vehicles.AddPhase(ctx, &domain.PhaseDraft{Title: "  Revisar documentos "})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.ID, "fase-"))
	assert.Equal(t, "Revisar documentos", p.Title)

	phases, err := f.vehicles.ListPhases(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.ID, phases[0].ID)

	_, err = f.vehicles.AddPhase(ctx, &domain.PhaseDraft{Title: "   "})
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)
}

func TestDeletePhaseMovesVehicles(t *testing.T) {
	f := demoFixture(t)

	require.NoError(t, f.vehicles.DeletePhase(ctx, "ano-2024"))

	board, err := f.vehicles.ListArchive(ctx, domain.ArchiveQuery{})
	require.NoError(t, err)
	require.Len(t, board.Columns, 1)
	assert.Equal(t, "ano-2023", board.Columns[0].Phase.ID)
	assert.Equal(t, []string{"20", "24", "27"}, ids(board.Columns[0].Vehicles))
}

func TestDeleteLastPhaseIsRefused(t *testing.T) {
	f := newFixture(t, storage.EmptySeed())

	err := f.vehicles.DeletePhase(ctx, storage.DefaultPhase.ID)
	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)

	err = f.vehicles.DeletePhase(ctx, "nope")
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestMoveToPhase(t *testing.T) {
	f := demoFixture(t)

	v, err := f.vehicles.MoveToPhase(ctx, "24", "ano-2023")
	require.NoError(t, err)
	assert.Equal(t, "ano-2023", v.PhaseID)

	board, err := f.vehicles.ListArchive(ctx, domain.ArchiveQuery{})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"ano-2024": {"27"}, "ano-2023": {"20", "24"}}, columnIDs(board))

	_, err = f.vehicles.MoveToPhase(ctx, "24", "nope")
	var nf *domain.ErrNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "phase", nf.Resource)
}
