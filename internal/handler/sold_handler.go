package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/service"
)

// ============================================================
// Vendidos Handlers
// ============================================================

func listSoldHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vehicles/sold")
		defer span.End()

		q := r.URL.Query()
		board, err := svc.ListSold(ctx, domain.SoldQuery{
			Q:      q.Get("q"),
			Plate:  q.Get("plate"),
			Model:  q.Get("model"),
			Client: q.Get("client"),
			From:   q.Get("from"),
			To:     q.Get("to"),
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, board)
	}
}

func getSoldHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vehicles/sold/{id}")
		defer span.End()

		v, err := svc.GetSold(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func updateSoldHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/vehicles/sold/{id}")
		defer span.End()

		var patch domain.VehiclePatch
		if !decodeJSON(w, r, &patch) {
			return
		}

		v, err := svc.UpdateSold(ctx, chi.URLParam(r, "id"), &patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func soldStatusHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/vehicles/sold/{id}/status")
		defer span.End()

		var req struct {
			Status domain.VehicleStatus `json:"status"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		v, err := svc.SetSoldStatus(ctx, chi.URLParam(r, "id"), req.Status)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func archiveHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/vehicles/sold/{id}/archive")
		defer span.End()

		v, err := svc.Archive(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func paymentsHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/vehicles/sold/{id}/payments")
		defer span.End()

		var req struct {
			Payments []domain.Payment `json:"payments"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		v, err := svc.UpdatePayments(ctx, chi.URLParam(r, "id"), req.Payments)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func paymentSheetHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vehicles/sold/{id}/planilha")
		defer span.End()

		page, err := svc.PaymentSheet(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(page)
	}
}
