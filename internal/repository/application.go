// internal/repository/application.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationFilter narrows application queries. A nil field matches all.
type ApplicationFilter struct {
	ApplicantID    *uuid.UUID
	OrganizationID *uuid.UUID
	OfferingID     *uuid.UUID
	Status         model.ApplicationStatus
}

type ApplicationRepositoryIface interface {
	// Create inserts app after re-checking the duplicate and per-organization
	// rules under a lock on the applicant, so concurrent submissions by the
	// same applicant are serialized.
	Create(ctx context.Context, app *model.Application, perOrgLimit int) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
	Find(ctx context.Context, filter ApplicationFilter) ([]model.Application, error)
	UpdateIf(ctx context.Context, id uuid.UUID, cond admission.Precondition, patch admission.Patch) (*model.Application, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application, perOrgLimit int) error {
	err := transaction(ctx, r.db, func(tx *gorm.DB) error {
		var applicant model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&applicant, "id = ?", app.ApplicantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("locking applicant: %w", err)
		}

		var held []model.Application
		if err := tx.Where("applicant_id = ?", app.ApplicantID).Find(&held).Error; err != nil {
			return fmt.Errorf("loading held applications: %w", err)
		}

		atOrganization := 0
		for _, h := range held {
			if h.OfferingID == app.OfferingID {
				return domain.ErrAlreadyApplied
			}
			if h.OrganizationID == app.OrganizationID {
				atOrganization++
			}
		}
		if atOrganization >= perOrgLimit {
			return domain.ErrOrganizationLimitReached
		}

		if err := tx.Create(app).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyApplied
			}
			return fmt.Errorf("creating application: %w", err)
		}
		return nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrAlreadyApplied),
		errors.Is(err, domain.ErrOrganizationLimitReached),
		errors.Is(err, domain.ErrUserNotFound):
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("finding application: %w", err)
	}
	return &app, nil
}

// Find returns matching applications. Ordering is left to the caller.
func (r *ApplicationRepository) Find(ctx context.Context, filter ApplicationFilter) ([]model.Application, error) {
	var apps []model.Application

	query := r.db.WithContext(ctx).Model(&model.Application{})
	if filter.ApplicantID != nil {
		query = query.Where("applicant_id = ?", *filter.ApplicantID)
	}
	if filter.OrganizationID != nil {
		query = query.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.OfferingID != nil {
		query = query.Where("offering_id = ?", *filter.OfferingID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("finding applications: %w", err)
	}
	return apps, nil
}

// UpdateIf applies patch with a single conditional UPDATE. When no row
// matches, the record is looked up again to tell a missing application from
// a stale one.
func (r *ApplicationRepository) UpdateIf(ctx context.Context, id uuid.UUID, cond admission.Precondition, patch admission.Patch) (*model.Application, error) {
	updates := map[string]interface{}{
		"status":     patch.Status,
		"updated_at": time.Now().UTC(),
	}
	if patch.StudentResponse != nil {
		updates["student_response"] = *patch.StudentResponse
		updates["responded_at"] = patch.RespondedAt
	}
	if patch.ReviewedAt != nil {
		updates["reviewed_at"] = patch.ReviewedAt
		updates["reviewed_by_id"] = patch.ReviewedByID
	}

	var updated model.Application
	err := transaction(ctx, r.db, func(tx *gorm.DB) error {
		query := tx.Model(&model.Application{}).Where("id = ? AND status = ?", id, cond.Status)
		if cond.ResponseUnset {
			query = query.Where("student_response IS NULL")
		}

		result := query.Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("updating application: %w", result.Error)
		}

		if err := tx.First(&updated, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrApplicationNotFound
			}
			return fmt.Errorf("reloading application: %w", err)
		}

		if result.RowsAffected == 0 {
			return domain.ErrStaleState
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *ApplicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Application{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("%w: deleting application: %w", domain.ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrApplicationNotFound
	}
	return nil
}
