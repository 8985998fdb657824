package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/service"
)

// ============================================================
// Documentos Handlers
// ============================================================

// multipartOverhead leaves room for the form boundaries around the file.
const multipartOverhead = 1 << 20

func uploadDocumentHandler(svc *service.VehicleService, maxUpload int64, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/vehicles/{id}/documents")
		defer span.End()

		if maxUpload > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxUpload+multipartOverhead)
		}
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				handleServiceError(w, &domain.ErrPayloadTooLarge{Limit: maxUpload}, logger)
				return
			}
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		doc, err := svc.UploadDocument(ctx, chi.URLParam(r, "id"), header.Filename, contentType, file, header.Size)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, doc)
	}
}

func openDocumentHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vehicles/{id}/documents/{docId}")
		defer span.End()

		doc, err := svc.OpenDocument(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "docId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		defer doc.Body.Close()

		contentType := doc.Attachment.Type
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": doc.Attachment.Name}))
		if doc.Attachment.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(doc.Attachment.Size, 10))
		}
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, doc.Body); err != nil {
			logger.Warn("document stream interrupted", zap.String("document_id", doc.Attachment.ID), zap.Error(err))
		}
	}
}

func deleteDocumentHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/vehicles/{id}/documents/{docId}")
		defer span.End()

		docID := chi.URLParam(r, "docId")
		if err := svc.DeleteDocument(ctx, chi.URLParam(r, "id"), docID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Documento removido", ID: docID})
	}
}
