// internal/repository/organization.go
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

// OrganizationFilter narrows organization listings.
type OrganizationFilter struct {
	OrgType model.OrganizationType
	Status  model.OrganizationStatus
}

type OrganizationRepositoryIface interface {
	FindAllPaginated(ctx context.Context, filter OrganizationFilter, page Page) ([]*model.Organization, int64, error)
	FindOrganizationUsers(ctx context.Context, orgID uuid.UUID) ([]*model.OrganizationUser, error)
	CreateOrganizationUser(ctx context.Context, orgUser *model.OrganizationUser) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Organization, error)
	Update(ctx context.Context, org *model.Organization) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrganizationStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// FindAllPaginated returns a filtered page of organizations
func (r *OrganizationRepository) FindAllPaginated(ctx context.Context, filter OrganizationFilter, page Page) ([]*model.Organization, int64, error) {
	var orgs []*model.Organization
	var count int64

	query := r.db.WithContext(ctx).Model(&model.Organization{})
	if filter.OrgType != "" {
		query = query.Where("org_type = ?", filter.OrgType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count organizations: %w", err)
	}

	result := page.apply(query).Order("name ASC").Find(&orgs)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to find paginated organizations: %w", result.Error)
	}

	return orgs, count, nil
}

// FindOrganizationUsers returns all users belonging to the given organization
func (r *OrganizationRepository) FindOrganizationUsers(ctx context.Context, orgID uuid.UUID) ([]*model.OrganizationUser, error) {
	var orgUsers []*model.OrganizationUser
	result := r.db.WithContext(ctx).Preload("User").Where("organization_id = ?", orgID).Find(&orgUsers)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find organization users: %w", result.Error)
	}
	return orgUsers, nil
}

func (r *OrganizationRepository) CreateOrganizationUser(ctx context.Context, orgUser *model.OrganizationUser) error {
	if err := r.db.WithContext(ctx).Create(orgUser).Error; err != nil {
		return fmt.Errorf("creating organization user: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("finding organization: %w", err)
	}
	return &org, nil
}

func (r *OrganizationRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Organization, error) {
	var orgs []*model.Organization
	if len(ids) == 0 {
		return orgs, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&orgs).Error; err != nil {
		return nil, fmt.Errorf("finding organizations: %w", err)
	}
	return orgs, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, org *model.Organization) error {
	if err := r.db.WithContext(ctx).Save(org).Error; err != nil {
		return fmt.Errorf("updating organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrganizationStatus) error {
	result := r.db.WithContext(ctx).Model(&model.Organization{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("updating organization status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}

func (r *OrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := transaction(ctx, r.db, func(tx *gorm.DB) error {
		// Delete organization users first
		if err := tx.Where("organization_id = ?", id).Delete(&model.OrganizationUser{}).Error; err != nil {
			return fmt.Errorf("deleting organization users: %w", err)
		}

		if err := tx.Delete(&model.Organization{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("deleting organization: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}
