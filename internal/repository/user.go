// internal/repository/user.go
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

// Account is everything written when a user registers.
type Account struct {
	User    *model.User
	Factors []*model.UserFactor
	// Organization is set for institute and company signups. The user
	// becomes its owner.
	Organization *model.Organization
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Role   model.Role
	Status model.UserStatus
}

type UserRepositoryIface interface {
	CreateAccount(ctx context.Context, account *Account) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error)
	FindByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.UserStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindAllPaginated(ctx context.Context, filter UserFilter, page Page) ([]*model.User, int64, error)
	CountByRole(ctx context.Context) (map[model.Role]int64, error)
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateAccount inserts the user, its factors and, for organization roles, the
// organization and owner membership in a single transaction.
func (r *UserRepository) CreateAccount(ctx context.Context, account *Account) error {
	err := transaction(ctx, r.db, func(tx *gorm.DB) error {
		user := account.User

		if err := tx.Create(user).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrEmailAlreadyExists
			}
			return fmt.Errorf("creating user: %w", err)
		}

		for _, factor := range account.Factors {
			factor.UserID = user.ID
			if err := tx.Create(factor).Error; err != nil {
				return fmt.Errorf("creating %s factor: %w", factor.FactorType, err)
			}
		}

		if account.Organization == nil {
			return nil
		}

		org := account.Organization
		org.CreatedByID = user.ID
		if err := tx.Create(org).Error; err != nil {
			return fmt.Errorf("creating organization: %w", err)
		}

		member := &model.OrganizationUser{
			OrganizationID: org.ID,
			UserID:         user.ID,
			Role:           model.MemberRoleOwner,
		}
		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("creating organization user: %w", err)
		}

		user.OrganizationID = &org.ID
		if err := tx.Model(user).Update("organization_id", org.ID).Error; err != nil {
			return fmt.Errorf("linking user organization: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			return err
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", result.Error)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	result := r.db.WithContext(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", result.Error)
	}
	return &user, nil
}

// FindByIDs returns the users that exist among ids, in no particular order.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error) {
	var users []*model.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) FindByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.User, error) {
	var users []*model.User
	result := r.db.WithContext(ctx).
		Joins("JOIN organization_users ON users.id = organization_users.user_id").
		Where("organization_users.organization_id = ?", orgID).
		Find(&users)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find users: %w", result.Error)
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	result := r.db.WithContext(ctx).Save(user)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	return nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.UserStatus) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update user status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	return nil
}

// FindAllPaginated returns a filtered page of users and the total match count.
func (r *UserRepository) FindAllPaginated(ctx context.Context, filter UserFilter, page Page) ([]*model.User, int64, error) {
	var users []*model.User
	var count int64

	query := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	result := page.apply(query).Order("created_at DESC").Find(&users)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to find paginated users: %w", result.Error)
	}

	return users, count, nil
}

func (r *UserRepository) CountByRole(ctx context.Context) (map[model.Role]int64, error) {
	var rows []struct {
		Role  model.Role
		Count int64
	}
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("role, count(*) AS count").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}

	out := make(map[model.Role]int64, len(rows))
	for _, row := range rows {
		out[row.Role] = row.Count
	}
	return out, nil
}
