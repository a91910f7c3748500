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

// UserFactorRepositoryIface defines the interface for the user factor repository.
type UserFactorRepositoryIface interface {
	Create(ctx context.Context, factor *model.UserFactor) error
	FindByUserAndType(ctx context.Context, userID uuid.UUID, factorType model.FactorType) (*model.UserFactor, error)
	Update(ctx context.Context, factor *model.UserFactor) error
	// ReplaceVerificationCode deactivates any outstanding codes and stores factor.
	ReplaceVerificationCode(ctx context.Context, factor *model.UserFactor) error
}

// UserFactorRepository implements UserFactorRepositoryIface.
type UserFactorRepository struct {
	db *gorm.DB
}

// NewUserFactorRepository initializes a new repository instance.
func NewUserFactorRepository(db *gorm.DB) *UserFactorRepository {
	return &UserFactorRepository{db: db}
}

// Create inserts a new user factor.
func (r *UserFactorRepository) Create(ctx context.Context, factor *model.UserFactor) error {
	if err := r.db.WithContext(ctx).Create(factor).Error; err != nil {
		return fmt.Errorf("creating user factor: %w", err)
	}
	return nil
}

// FindByUserAndType retrieves the newest factor of a type for a user.
func (r *UserFactorRepository) FindByUserAndType(ctx context.Context, userID uuid.UUID, factorType model.FactorType) (*model.UserFactor, error) {
	var factor model.UserFactor
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		First(&factor, "user_id = ? AND factor_type = ?", userID, factorType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFactorNotFound
		}
		return nil, fmt.Errorf("finding user factor: %w", err)
	}
	return &factor, nil
}

// Update modifies an existing user factor.
func (r *UserFactorRepository) Update(ctx context.Context, factor *model.UserFactor) error {
	if err := r.db.WithContext(ctx).Save(factor).Error; err != nil {
		return fmt.Errorf("updating user factor: %w", err)
	}
	return nil
}

func (r *UserFactorRepository) ReplaceVerificationCode(ctx context.Context, factor *model.UserFactor) error {
	return transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Model(&model.UserFactor{}).
			Where("user_id = ? AND factor_type = ? AND is_active = ?", factor.UserID, model.FactorVerificationCode, true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("deactivating verification codes: %w", err)
		}
		if err := tx.Create(factor).Error; err != nil {
			return fmt.Errorf("creating verification code: %w", err)
		}
		return nil
	})
}
