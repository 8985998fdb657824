package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/service"
)

// ============================================================
// Arquivo Morto Handlers
// ============================================================

func listArchiveHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/archive")
		defer span.End()

		q := r.URL.Query()
		board, err := svc.ListArchive(ctx, domain.ArchiveQuery{
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

func getArchivedHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/archive/vehicles/{id}")
		defer span.End()

		v, err := svc.GetArchived(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func moveToPhaseHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/archive/vehicles/{id}/phase")
		defer span.End()

		var req struct {
			PhaseID string `json:"phaseId"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		v, err := svc.MoveToPhase(ctx, chi.URLParam(r, "id"), req.PhaseID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func listPhasesHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/archive/phases")
		defer span.End()

		phases, err := svc.ListPhases(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, phases)
	}
}

func addPhaseHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/archive/phases")
		defer span.End()

		var draft domain.PhaseDraft
		if !decodeJSON(w, r, &draft) {
			return
		}

		p, err := svc.AddPhase(ctx, &draft)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func deletePhaseHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/archive/phases/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeletePhase(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Fase removida", ID: id})
	}
}
