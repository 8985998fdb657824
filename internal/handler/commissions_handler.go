package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/service"
)

// ============================================================
// Comissões Handlers
// ============================================================

func listCommissionsHandler(svc *service.CommissionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/commissions")
		defer span.End()

		list, err := svc.ListCommissions(ctx, domain.CommissionTab(r.URL.Query().Get("tab")))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func addCommissionHandler(svc *service.CommissionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/commissions")
		defer span.End()

		var draft domain.CommissionDraft
		if !decodeJSON(w, r, &draft) {
			return
		}

		c, err := svc.AddCommission(ctx, &draft)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func receiveCommissionHandler(svc *service.CommissionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/commissions/{id}/receive")
		defer span.End()

		c, err := svc.MarkReceived(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func deleteCommissionHandler(svc *service.CommissionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/commissions/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteCommission(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Comissão removida", ID: id})
	}
}

// ============================================================
// Clientes Handlers
// ============================================================

func listClientsHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients")
		defer span.End()

		clients, err := svc.ListClients(ctx, r.URL.Query().Get("q"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, clients)
	}
}

func upsertClientHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients")
		defer span.End()

		var record domain.ClientRecord
		if !decodeJSON(w, r, &record) {
			return
		}

		saved, err := svc.UpsertClient(ctx, &record)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func getClientHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients/{id}")
		defer span.End()

		c, err := svc.GetClient(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}
