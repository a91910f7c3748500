// internal/service/document.go
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/dangerclosesec/pathway/internal/storage"
	"github.com/google/uuid"
)

type DocumentService struct {
	repo   repository.DocumentRepositoryIface
	store  storage.Store
	folder string
}

// NewDocumentService returns a service storing files under folder. A nil
// store makes uploads fail with domain.ErrStorageUnavailable.
func NewDocumentService(repo repository.DocumentRepositoryIface, store storage.Store, folder string) *DocumentService {
	return &DocumentService{repo: repo, store: store, folder: folder}
}

type UploadDocumentInput struct {
	Name string             `json:"name"`
	Type model.DocumentType `json:"type"`
}

// Upload stores the file with the storage collaborator and records it for
// the user.
func (s *DocumentService) Upload(ctx context.Context, userID uuid.UUID, input UploadDocumentInput, file io.Reader) (*model.Document, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}
	switch input.Type {
	case model.DocumentTranscript, model.DocumentIdentification, model.DocumentCertificate, model.DocumentOther:
	case "":
		input.Type = model.DocumentOther
	default:
		return nil, fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, input.Type)
	}
	if s.store == nil {
		return nil, domain.ErrStorageUnavailable
	}

	obj, err := s.store.Upload(ctx, path.Join(s.folder, userID.String()), name, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	doc := &model.Document{
		UserID:   userID,
		Name:     name,
		Type:     input.Type,
		URL:      obj.URL,
		PublicID: obj.PublicID,
		Status:   model.DocumentPending,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if derr := s.store.Delete(ctx, obj.PublicID); derr != nil {
			slog.WarnContext(ctx, "failed to remove orphaned upload", "public_id", obj.PublicID, "error", derr)
		}
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, userID uuid.UUID) ([]*model.Document, error) {
	return s.repo.FindByUser(ctx, userID)
}

// Delete removes one of the user's documents from storage and the store.
// Documents of other users are reported as not found.
func (s *DocumentService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.UserID != userID {
		return domain.ErrDocumentNotFound
	}
	if s.store == nil {
		return domain.ErrStorageUnavailable
	}
	if err := s.store.Delete(ctx, doc.PublicID); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return s.repo.Delete(ctx, id)
}

// Verify marks a document as checked by an administrator.
func (s *DocumentService) Verify(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateStatus(ctx, id, model.DocumentVerified)
}
