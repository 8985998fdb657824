package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/handler"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/cache"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/memory"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/objectstore"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/observability"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/resilience"
	"github.com/mgm-veiculos/mgm-api-go/internal/service"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

func newRouter(t *testing.T, auth *service.AuthService) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	repo := storage.NewRepository(memory.New(), "memory", storage.DemoSeed(), metrics, logger)
	blobs, err := objectstore.NewLocal(t.TempDir())
	require.NoError(t, err)
	dashCache := cache.New[*domain.Dashboard](time.Minute)
	t.Cleanup(dashCache.Close)

	return handler.NewRouter(handler.Services{
		Vehicles:       service.NewVehicleService(repo, blobs, resilience.NewBulkhead(2), 1<<20, metrics, logger),
		Commissions:    service.NewCommissionService(repo, metrics, logger),
		Clients:        service.NewClientService(repo, logger),
		Settings:       service.NewSettingsService(repo, logger),
		Dashboard:      service.NewDashboardService(repo, dashCache, metrics),
		Auth:           auth,
		Store:          repo,
		MaxUploadBytes: 1 << 20,
		CORSOrigins:    []string{"https://mgm.example.com"},
	}, metrics, logger)
}

func do(t *testing.T, h http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestOperationalEndpoints(t *testing.T) {
	router := newRouter(t, nil)

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/ping"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}

	health := decode[domain.HealthStatus](t, do(t, router, http.MethodGet, "/healthz", nil))
	assert.Equal(t, "healthy", health.Status)
	require.Len(t, health.Services, 2)
	assert.Equal(t, "memory", health.Services[1].Name)
}

func TestForSaleRoutes(t *testing.T) {
	router := newRouter(t, nil)

	rec := do(t, router, http.MethodGet, "/v1/vehicles/for-sale?filter=type&value=moto", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[domain.ForSaleBoard](t, rec)
	assert.Len(t, board.Motorcycles, 2)
	assert.Empty(t, board.Cars)

	rec = do(t, router, http.MethodPost, "/v1/vehicles/for-sale", map[string]any{"model": "Fiat Toro", "price": "R$ 98.500,00"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[domain.Vehicle](t, rec)
	assert.Equal(t, "98500.00", created.Price.StringFixed(2))

	rec = do(t, router, http.MethodPut, "/v1/vehicles/for-sale/"+created.ID+"/type", map[string]string{"type": "moto"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPatch, "/v1/vehicles/for-sale/"+created.ID, map[string]any{"year": 1800})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodDelete, "/v1/vehicles/for-sale/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodGet, "/v1/vehicles/for-sale/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestInvalidBodyIsBadRequest(t *testing.T) {
	router := newRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/vehicles/for-sale", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSellArchiveFlow(t *testing.T) {
	router := newRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/v1/vehicles/for-sale/2/sell", map[string]any{
		"customer": map[string]any{"nome": "Paulo", "cpf": "111.111.111-11"},
		"venda":    map[string]any{"valorEntrada": 10000, "parcelas": 12, "vencimento": "2026-03-05"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sale := decode[domain.SaleResult](t, rec)
	assert.Equal(t, domain.StatusOnTime, sale.Vehicle.Status)
	require.NotNil(t, sale.Client)

	rec = do(t, router, http.MethodGet, "/v1/vehicles/sold?client=paulo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sold := decode[domain.SoldBoard](t, rec)
	require.Len(t, sold.OnTime, 1)
	assert.Equal(t, 1, sold.ActiveFilters)

	rec = do(t, router, http.MethodGet, "/v1/vehicles/sold/2/planilha", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = do(t, router, http.MethodPut, "/v1/vehicles/sold/2/status", map[string]string{"status": "quitado"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/v1/archive/vehicles/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	archived := decode[domain.Vehicle](t, rec)
	assert.Equal(t, domain.StatusPaidOff, archived.Status)

	rec = do(t, router, http.MethodGet, "/v1/commissions?tab=a-receber", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[domain.CommissionList](t, rec)
	assert.Len(t, list.Items, 1)
}

func TestPhaseRoutes(t *testing.T) {
	router := newRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/v1/archive/phases", map[string]string{"title": "Pendências"})
	require.Equal(t, http.StatusCreated, rec.Code)
	phase := decode[domain.Phase](t, rec)

	rec = do(t, router, http.MethodPut, "/v1/archive/vehicles/20/phase", map[string]string{"phaseId": phase.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/v1/archive?filter=phase&value="+phase.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[domain.ArchiveBoard](t, rec)
	assert.Equal(t, 1, board.Total)

	for _, id := range []string{phase.ID, "ano-2024"} {
		rec = do(t, router, http.MethodDelete, "/v1/archive/phases/"+id, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec = do(t, router, http.MethodDelete, "/v1/archive/phases/ano-2023", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDocumentRoutes(t *testing.T) {
	router := newRouter(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "crlv.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("documento"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/vehicles/10/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[domain.Attachment](t, rec)

	rec = do(t, router, http.MethodGet, "/v1/vehicles/10/documents/"+doc.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "documento", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "crlv.txt")

	rec = do(t, router, http.MethodDelete, "/v1/vehicles/10/documents/"+doc.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodGet, "/v1/vehicles/10/documents/"+doc.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettingsRoutes(t *testing.T) {
	router := newRouter(t, nil)

	rec := do(t, router, http.MethodPut, "/v1/settings/commission-rates", map[string]any{"carro": 310.4, "moto": -5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"carro":"310.00","moto":"0.00"}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/v1/settings/backup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	backup := decode[map[string]string](t, rec)
	assert.Contains(t, backup, storage.KeyCommissionRates)

	rec = do(t, router, http.MethodPost, "/v1/settings/backup", map[string]any{"mgm_x_v1": "[]", "foo": "[]"})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[domain.ImportResult](t, rec)
	assert.Equal(t, []string{"mgm_x_v1"}, res.Imported)
	assert.Equal(t, []string{"foo"}, res.Skipped)

	rec = do(t, router, http.MethodDelete, "/v1/settings/backup", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/v1/settings/commission-rates", nil)
	assert.JSONEq(t, `{"carro":"200.00","moto":"100.00"}`, rec.Body.String())
}

func TestDashboardAndConsulta(t *testing.T) {
	router := newRouter(t, nil)

	rec := do(t, router, http.MethodGet, "/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[domain.Dashboard](t, rec)
	assert.Equal(t, 12, d.Total)

	rec = do(t, router, http.MethodGet, "/v1/consulta?q=ferreira", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "cpf")

	rec = do(t, router, http.MethodGet, "/v1/metrics/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[domain.OperationalMetrics](t, rec)
	assert.Positive(t, snap.TotalRequests)
}

func TestLoginDisabled(t *testing.T) {
	router := newRouter(t, service.NewAuthService(false, "", "", "s", time.Hour, zap.NewNop()))

	rec := do(t, router, http.MethodPost, "/v1/auth/login", map[string]string{"role": "gestor", "password": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRoleAccess(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("olhar123"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := service.NewAuthService(true, "", string(hash), "secret-for-tests", time.Hour, zap.NewNop())
	router := newRouter(t, auth)

	rec := do(t, router, http.MethodGet, "/v1/consulta", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodPost, "/v1/auth/login", map[string]string{"role": "consulta", "password": "olhar123"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[domain.LoginResponse](t, rec)
	bearer := "Bearer " + login.AccessToken

	rec = do(t, router, http.MethodGet, "/v1/consulta", nil, "Authorization", bearer)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/v1/vehicles/for-sale", nil, "Authorization", bearer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodGet, "/v1/consulta", nil, "Authorization", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/vehicles/sold", nil)
	req.Header.Set("Origin", "https://mgm.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://mgm.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
