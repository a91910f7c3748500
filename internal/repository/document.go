// internal/repository/document.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepositoryIface interface {
	Create(ctx context.Context, doc *model.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*model.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.DocumentStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("creating document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("finding document: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*model.Document, error) {
	var docs []*model.Document
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("finding documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.DocumentStatus) error {
	result := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("updating document status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&model.Document{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}
