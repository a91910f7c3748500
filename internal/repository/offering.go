// internal/repository/offering.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OfferingFilter narrows offering listings. Zero values match everything.
type OfferingFilter struct {
	OrganizationID *uuid.UUID
	Kind           model.OfferingKind
	Status         model.OfferingStatus
	Search         string
}

type OfferingRepositoryIface interface {
	Create(ctx context.Context, offering *model.Offering) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Offering, error)
	Find(ctx context.Context, filter OfferingFilter, page Page) ([]*model.Offering, int64, error)
	Update(ctx context.Context, offering *model.Offering) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*model.Offering, error)
	Close(ctx context.Context, ids []uuid.UUID) (int64, error)
	CountByKind(ctx context.Context) (map[model.OfferingKind]int64, error)
}

type OfferingRepository struct {
	db *gorm.DB
}

func NewOfferingRepository(db *gorm.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

func (r *OfferingRepository) Create(ctx context.Context, offering *model.Offering) error {
	if err := r.db.WithContext(ctx).Create(offering).Error; err != nil {
		return fmt.Errorf("creating offering: %w", err)
	}
	return nil
}

func (r *OfferingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Offering, error) {
	var offering model.Offering
	if err := r.db.WithContext(ctx).First(&offering, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOfferingNotFound
		}
		return nil, fmt.Errorf("finding offering: %w", err)
	}
	return &offering, nil
}

func (r *OfferingRepository) Find(ctx context.Context, filter OfferingFilter, page Page) ([]*model.Offering, int64, error) {
	var offerings []*model.Offering
	var count int64

	query := r.db.WithContext(ctx).Model(&model.Offering{})
	if filter.OrganizationID != nil {
		query = query.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("counting offerings: %w", err)
	}

	if err := page.apply(query).Order("created_at DESC").Find(&offerings).Error; err != nil {
		return nil, 0, fmt.Errorf("finding offerings: %w", err)
	}

	return offerings, count, nil
}

func (r *OfferingRepository) Update(ctx context.Context, offering *model.Offering) error {
	if err := r.db.WithContext(ctx).Save(offering).Error; err != nil {
		return fmt.Errorf("updating offering: %w", err)
	}
	return nil
}

func (r *OfferingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Offering{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting offering: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrOfferingNotFound
	}
	return nil
}

// FindExpired returns active offerings whose deadline passed before now.
func (r *OfferingRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*model.Offering, error) {
	var offerings []*model.Offering
	err := r.db.WithContext(ctx).
		Where("status = ? AND deadline IS NOT NULL AND deadline < ?", model.OfferingActive, now).
		Order("deadline ASC").
		Limit(limit).
		Find(&offerings).Error
	if err != nil {
		return nil, fmt.Errorf("finding expired offerings: %w", err)
	}
	return offerings, nil
}

// Close marks the offerings closed and returns how many changed.
func (r *OfferingRepository) Close(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&model.Offering{}).
		Where("id IN ? AND status = ?", ids, model.OfferingActive).
		Updates(map[string]interface{}{"status": model.OfferingClosed, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return 0, fmt.Errorf("closing offerings: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *OfferingRepository) CountByKind(ctx context.Context) (map[model.OfferingKind]int64, error) {
	var rows []struct {
		Kind  model.OfferingKind
		Count int64
	}
	if err := r.db.WithContext(ctx).Model(&model.Offering{}).
		Select("kind, count(*) AS count").
		Group("kind").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("counting offerings by kind: %w", err)
	}

	out := make(map[model.OfferingKind]int64, len(rows))
	for _, row := range rows {
		out[row.Kind] = row.Count
	}
	return out, nil
}
