package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/observability"
	"github.com/mgm-veiculos/mgm-api-go/internal/service"
)

var tracer = otel.Tracer("handler")

// Pinger reports whether the storage backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
	Backend() string
}

// Services groups what the router exposes.
type Services struct {
	Vehicles    *service.VehicleService
	Commissions *service.CommissionService
	Clients     *service.ClientService
	Settings    *service.SettingsService
	Dashboard   *service.DashboardService
	Auth        *service.AuthService
	Store       Pinger
	// MaxUploadBytes caps multipart document uploads.
	MaxUploadBytes int64
	// CORSOrigins lists the browser origins allowed to call the API.
	// Empty disables CORS handling.
	CORSOrigins []string
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if len(svc.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   svc.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"Content-Disposition", "X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics(metrics))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. Autenticação
		// POST /v1/auth/login
		// =============================================
		r.Post("/auth/login", authLoginHandler(svc.Auth, logger))

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svc.Auth, logger))

			// =============================================
			// 2. Consulta (gestor e consulta)
			// GET /v1/consulta, GET /v1/consulta/{id}
			// =============================================
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(logger, domain.RoleManager, domain.RoleViewer))
				r.Get("/consulta", consultaSearchHandler(svc.Vehicles, logger))
				r.Get("/consulta/{id}", consultaGetHandler(svc.Vehicles, logger))
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(logger, domain.RoleManager))

				// =============================================
				// 3. Dashboard e métricas
				// =============================================
				r.Get("/dashboard", dashboardHandler(svc.Dashboard, logger))
				r.Get("/metrics/summary", metricsSummaryHandler(metrics))

				// =============================================
				// 4. À Venda
				// =============================================
				r.Get("/vehicles/for-sale", listForSaleHandler(svc.Vehicles, logger))
				r.Post("/vehicles/for-sale", addVehicleHandler(svc.Vehicles, logger))
				r.Get("/vehicles/for-sale/{id}", getForSaleHandler(svc.Vehicles, logger))
				r.Patch("/vehicles/for-sale/{id}", editVehicleHandler(svc.Vehicles, logger))
				r.Delete("/vehicles/for-sale/{id}", deleteVehicleHandler(svc.Vehicles, logger))
				r.Put("/vehicles/for-sale/{id}/type", changeTypeHandler(svc.Vehicles, logger))
				r.Post("/vehicles/for-sale/{id}/sell", sellHandler(svc.Vehicles, logger))

				// =============================================
				// 5. Vendidos
				// =============================================
				r.Get("/vehicles/sold", listSoldHandler(svc.Vehicles, logger))
				r.Get("/vehicles/sold/{id}", getSoldHandler(svc.Vehicles, logger))
				r.Patch("/vehicles/sold/{id}", updateSoldHandler(svc.Vehicles, logger))
				r.Put("/vehicles/sold/{id}/status", soldStatusHandler(svc.Vehicles, logger))
				r.Post("/vehicles/sold/{id}/archive", archiveHandler(svc.Vehicles, logger))
				r.Put("/vehicles/sold/{id}/payments", paymentsHandler(svc.Vehicles, logger))
				r.Get("/vehicles/sold/{id}/planilha", paymentSheetHandler(svc.Vehicles, logger))

				// =============================================
				// 6. Documentos
				// =============================================
				r.Post("/vehicles/{id}/documents", uploadDocumentHandler(svc.Vehicles, svc.MaxUploadBytes, logger))
				r.Get("/vehicles/{id}/documents/{docId}", openDocumentHandler(svc.Vehicles, logger))
				r.Delete("/vehicles/{id}/documents/{docId}", deleteDocumentHandler(svc.Vehicles, logger))

				// =============================================
				// 7. Arquivo Morto
				// =============================================
				r.Get("/archive", listArchiveHandler(svc.Vehicles, logger))
				r.Get("/archive/vehicles/{id}", getArchivedHandler(svc.Vehicles, logger))
				r.Put("/archive/vehicles/{id}/phase", moveToPhaseHandler(svc.Vehicles, logger))
				r.Get("/archive/phases", listPhasesHandler(svc.Vehicles, logger))
				r.Post("/archive/phases", addPhaseHandler(svc.Vehicles, logger))
				r.Delete("/archive/phases/{id}", deletePhaseHandler(svc.Vehicles, logger))

				// =============================================
				// 8. Comissões
				// =============================================
				r.Get("/commissions", listCommissionsHandler(svc.Commissions, logger))
				r.Post("/commissions", addCommissionHandler(svc.Commissions, logger))
				r.Post("/commissions/{id}/receive", receiveCommissionHandler(svc.Commissions, logger))
				r.Delete("/commissions/{id}", deleteCommissionHandler(svc.Commissions, logger))

				// =============================================
				// 9. Clientes
				// =============================================
				r.Get("/clients", listClientsHandler(svc.Clients, logger))
				r.Post("/clients", upsertClientHandler(svc.Clients, logger))
				r.Get("/clients/{id}", getClientHandler(svc.Clients, logger))

				// =============================================
				// 10. Configurações e backup
				// =============================================
				r.Get("/settings/commission-rates", getRatesHandler(svc.Settings, logger))
				r.Put("/settings/commission-rates", saveRatesHandler(svc.Settings, logger))
				r.Get("/settings/backup", exportBackupHandler(svc.Settings, logger))
				r.Post("/settings/backup", importBackupHandler(svc.Settings, logger))
				r.Delete("/settings/backup", resetHandler(svc.Settings, logger))
			})
		})
	})

	return r
}

// ============================================================
// Health & métricas
// ============================================================

func healthzHandler(store Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "mgm-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if store != nil {
			start := time.Now()
			err := store.Ping(ctx)
			latency := time.Since(start).Milliseconds()
			sh := domain.ServiceHealth{Name: store.Backend(), Status: "healthy", LatencyMs: latency, LastChecked: now}
			if err != nil {
				logger.Warn("healthz: store ping failed", zap.Error(err))
				sh.Status = "unhealthy"
				sh.Error = err.Error()
			}
			services = append(services, sh)
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		status := http.StatusOK
		if overallStatus == "unhealthy" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}

func dashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		d, err := svc.Get(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}
