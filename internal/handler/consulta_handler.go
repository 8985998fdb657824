package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/service"
)

// ============================================================
// Consulta
// ============================================================

func consultaSearchHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/consulta")
		defer span.End()

		vehicles, err := svc.Search(ctx, r.URL.Query().Get("q"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, vehicles)
	}
}

func consultaGetHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/consulta/{id}")
		defer span.End()

		v, err := svc.Lookup(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}
