package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/service"
)

// ============================================================
// À Venda Handlers
// ============================================================

func listForSaleHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vehicles/for-sale")
		defer span.End()

		q := r.URL.Query()
		board, err := svc.ListForSale(ctx, domain.ForSaleQuery{
			Q:      q.Get("q"),
			Filter: domain.FilterKey(q.Get("filter")),
			Value:  q.Get("value"),
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, board)
	}
}

func addVehicleHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/vehicles/for-sale")
		defer span.End()

		var draft domain.VehicleDraft
		if !decodeJSON(w, r, &draft) {
			return
		}

		v, err := svc.AddVehicle(ctx, &draft)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, v)
	}
}

func getForSaleHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vehicles/for-sale/{id}")
		defer span.End()

		v, err := svc.GetForSale(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func editVehicleHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/vehicles/for-sale/{id}")
		defer span.End()

		var patch domain.VehiclePatch
		if !decodeJSON(w, r, &patch) {
			return
		}

		v, err := svc.EditVehicle(ctx, chi.URLParam(r, "id"), &patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func deleteVehicleHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/vehicles/for-sale/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteVehicle(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Veículo removido", ID: id})
	}
}

func changeTypeHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/vehicles/for-sale/{id}/type")
		defer span.End()

		var req struct {
			Type domain.VehicleType `json:"type"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		v, err := svc.ChangeType(ctx, chi.URLParam(r, "id"), req.Type)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func sellHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/vehicles/for-sale/{id}/sell")
		defer span.End()

		var req domain.SaleRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		res, err := svc.Sell(ctx, chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
