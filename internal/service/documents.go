package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

// ============================================================
// Documents: blobs attached to a vehicle in any stage
// ============================================================

// stageLists are the three vehicle lists, in lookup order.
var stageLists = []struct {
	get listGetter
	set listSetter
}{
	{(*storage.Tx).ForSale, (*storage.Tx).SetForSale},
	{(*storage.Tx).Sold, (*storage.Tx).SetSold},
	{(*storage.Tx).Archived, (*storage.Tx).SetArchived},
}

// updateAnywhere applies mutate to the vehicle with id in whichever list
// holds it.
func (s *VehicleService) updateAnywhere(ctx context.Context, id string, mutate func(*domain.Vehicle) error) (*domain.Vehicle, error) {
	var updated domain.Vehicle
	err := s.repo.Update(ctx, func(tx *storage.Tx) error {
		for _, stage := range stageLists {
			list, err := stage.get(tx)
			if err != nil {
				return err
			}
			i := indexOfVehicle(list, id)
			if i < 0 {
				continue
			}
			if err := mutate(&list[i]); err != nil {
				return err
			}
			updated = list[i]
			stage.set(tx, list)
			return nil
		}
		return notFound("vehicle", id)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func documentKey(vehicleID, docID string) string {
	return path.Join("vehicles", vehicleID, docID)
}

// UploadDocument stores the file and appends its metadata to the vehicle.
func (s *VehicleService) UploadDocument(ctx context.Context, vehicleID, name, contentType string, r io.Reader, size int64) (*domain.Attachment, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.UploadDocument")
	defer span.End()
	span.SetAttributes(attribute.String("vehicle.id", vehicleID), attribute.Int64("document.size", size))

	if s.maxUpload > 0 && size > s.maxUpload {
		return nil, &domain.ErrPayloadTooLarge{Limit: s.maxUpload}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "file", Message: "arquivo sem nome"}
	}

	if err := s.uploads.Acquire(ctx); err != nil {
		return nil, &domain.ErrTimeout{Operation: "upload document"}
	}
	defer s.uploads.Release()

	if _, err := s.findAnywhere(ctx, vehicleID); err != nil {
		return nil, err
	}

	uploadedAt := s.now().UTC()
	doc := domain.Attachment{
		ID:         newID("doc-"),
		Name:       name,
		Size:       size,
		Type:       contentType,
		UploadedAt: &uploadedAt,
	}
	doc.StorageKey = documentKey(vehicleID, doc.ID)

	if err := s.blobs.Put(ctx, doc.StorageKey, contentType, r, size); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	_, err := s.updateAnywhere(ctx, vehicleID, func(v *domain.Vehicle) error {
		docs := make([]domain.Attachment, 0, len(v.Documents)+1)
		docs = append(docs, v.Documents...)
		v.Documents = append(docs, doc)
		return nil
	})
	if err != nil {
		s.dropBlobs(ctx, []domain.Attachment{doc})
		return nil, err
	}

	s.logger.Info("document uploaded",
		zap.String("vehicle_id", vehicleID),
		zap.String("document_id", doc.ID),
		zap.Int64("size", size),
	)
	return &doc, nil
}

// Document is an opened attachment; the caller closes Body.
type Document struct {
	Attachment domain.Attachment
	Body       io.ReadCloser
}

func (s *VehicleService) OpenDocument(ctx context.Context, vehicleID, docID string) (*Document, error) {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.OpenDocument")
	defer span.End()

	v, err := s.findAnywhere(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	i := indexOfDocument(v.Documents, docID)
	if i < 0 {
		return nil, notFound("document", docID)
	}
	doc := v.Documents[i]
	if doc.StorageKey == "" {
		return nil, notFound("document", docID)
	}

	body, info, err := s.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, err
	}
	if doc.Type == "" && info != nil {
		doc.Type = info.ContentType
	}
	return &Document{Attachment: doc, Body: body}, nil
}

func (s *VehicleService) DeleteDocument(ctx context.Context, vehicleID, docID string) error {
	ctx, span := vehicleTracer.Start(ctx, "VehicleService.DeleteDocument")
	defer span.End()

	var removed domain.Attachment
	_, err := s.updateAnywhere(ctx, vehicleID, func(v *domain.Vehicle) error {
		i := indexOfDocument(v.Documents, docID)
		if i < 0 {
			return notFound("document", docID)
		}
		removed = v.Documents[i]
		v.Documents = removeAt(v.Documents, i)
		return nil
	})
	if err != nil {
		return err
	}

	s.dropBlobs(ctx, []domain.Attachment{removed})
	s.logger.Info("document deleted", zap.String("vehicle_id", vehicleID), zap.String("document_id", docID))
	return nil
}

func (s *VehicleService) findAnywhere(ctx context.Context, id string) (*domain.Vehicle, error) {
	var found *domain.Vehicle
	err := s.repo.View(ctx, func(tx *storage.Tx) error {
		for _, stage := range stageLists {
			list, err := stage.get(tx)
			if err != nil {
				return err
			}
			if i := indexOfVehicle(list, id); i >= 0 {
				found = &list[i]
				return nil
			}
		}
		return notFound("vehicle", id)
	})
	return found, err
}

func indexOfDocument(docs []domain.Attachment, id string) int {
	for i := range docs {
		if docs[i].ID == id {
			return i
		}
	}
	return -1
}
