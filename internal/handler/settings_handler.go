package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/service"
)

// ============================================================
// Configurações Handlers
// ============================================================

func getRatesHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/settings/commission-rates")
		defer span.End()

		rates, err := svc.GetRates(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rates)
	}
}

func saveRatesHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/settings/commission-rates")
		defer span.End()

		rates := domain.DefaultCommissionRates()
		if !decodeJSON(w, r, &rates) {
			return
		}

		saved, err := svc.SaveRates(ctx, rates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func exportBackupHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/settings/backup")
		defer span.End()

		backup, err := svc.Export(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if r.URL.Query().Get("download") != "" {
			name := "mgm-backup-" + time.Now().Format("2006-01-02") + ".json"
			w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		}
		writeJSON(w, http.StatusOK, backup)
	}
}

func importBackupHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/settings/backup")
		defer span.End()

		var payload map[string]any
		if !decodeJSON(w, r, &payload) {
			return
		}
		if payload == nil {
			writeError(w, http.StatusBadRequest, "backup must be a JSON object")
			return
		}

		res, err := svc.Import(ctx, payload)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func resetHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/settings/backup")
		defer span.End()

		deleted, err := svc.Reset(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if deleted == nil {
			deleted = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
	}
}
