package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/app"
	"github.com/mgm-veiculos/mgm-api-go/internal/config"
	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
)

func testConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	base := map[string]string{
		"DATA_BACKEND": "memory",
		"BLOB_DIR":     t.TempDir(),
	}
	for k, v := range env {
		base[k] = v
	}
	return config.LoadWith(func(k string) string { return base[k] })
}

func TestNewMemoryBackend(t *testing.T) {
	defer goleak.VerifyNone(t)

	a, err := app.New(context.Background(), testConfig(t, map[string]string{"SEED_DEMO_DATA": "true"}), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	board, err := a.Vehicles.ListForSale(context.Background(), domain.ForSaleQuery{})
	require.NoError(t, err)
	assert.Equal(t, 6, board.Total)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"memory"`)

	require.NoError(t, a.Close())
}

func TestNewSQLiteBackend(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"DATA_BACKEND": "sqlite",
		"SQLITE_PATH":  t.TempDir() + "/mgm.db",
	})
	a, err := app.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	board, err := a.Vehicles.ListForSale(context.Background(), domain.ForSaleQuery{})
	require.NoError(t, err)
	assert.Zero(t, board.Total)
	require.NoError(t, a.Repo.Ping(context.Background()))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"DATA_BACKEND": "mongo"}},
		{"supabase without url", map[string]string{"DATA_BACKEND": "supabase"}},
		{"auth without hash", map[string]string{"AUTH_ENABLED": "true"}},
		{"unknown blob backend", map[string]string{"BLOB_BACKEND": "ftp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.New(context.Background(), testConfig(t, tt.env), zap.NewNop())
			assert.Error(t, err)
		})
	}
}
