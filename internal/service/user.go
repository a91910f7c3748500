// internal/service/user.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dangerclosesec/pathway/internal/auth"
	"github.com/dangerclosesec/pathway/internal/config"
	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/email"
	"github.com/dangerclosesec/pathway/internal/email/mailer"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/dangerclosesec/pathway/internal/session"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MembershipRecorder mirrors organization memberships into the
// authorization service.
type MembershipRecorder interface {
	RecordMembership(ctx context.Context, orgID, userID string, role string) error
}

type UserService struct {
	repo          repository.UserRepositoryIface
	factorService *UserFactorService
	tokenManager  *auth.TokenManager
	emailService  email.Sender
	cacheService  *CacheService
	sessions      *session.Manager
	memberships   MembershipRecorder
	config        *config.Config
	validate      *validator.Validate
}

func NewUserService(
	repo repository.UserRepositoryIface,
	factorService *UserFactorService,
	tokenManager *auth.TokenManager,
	emailService email.Sender,
	cacheService *CacheService,
	sessions *session.Manager,
	config *config.Config,
) *UserService {
	if sessions == nil {
		sessions = session.NewManager()
	}
	return &UserService{
		repo:          repo,
		factorService: factorService,
		tokenManager:  tokenManager,
		emailService:  emailService,
		cacheService:  cacheService,
		sessions:      sessions,
		config:        config,
		validate:      validator.New(),
	}
}

// SetMembershipRecorder enables mirroring owner memberships on signup.
func (s *UserService) SetMembershipRecorder(r MembershipRecorder) {
	s.memberships = r
}

type SignupInput struct {
	Email            string     `json:"email" validate:"required,email"`
	FirstName        string     `json:"first_name" validate:"required"`
	LastName         string     `json:"last_name"`
	Phone            string     `json:"phone"`
	Role             model.Role `json:"role" validate:"required,oneof=student institute company"`
	OrganizationName string     `json:"organization_name" validate:"required_unless=Role student"`
	Location         string     `json:"location"`
	Password         string     `json:"password" validate:"required,min=8"`
	ConfirmPassword  string     `json:"confirm_password" validate:"required,min=8"`
}

type SignupOutput struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Signup registers a student, institute or company account. Institute and
// company signups also create the organization the user owns.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (*SignupOutput, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}

	if input.Password != input.ConfirmPassword {
		return nil, domain.ErrPasswordsDoNotMatch
	}

	if err := auth.CheckStrength(input.Password); err != nil {
		return nil, err
	}

	user := &model.User{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		Role:      input.Role,
		Status:    model.StatusPending,
	}

	account, code, err := s.newAccount(user, input.Password)
	if err != nil {
		return nil, err
	}

	if input.Role.IsOrganization() {
		account.Organization = &model.Organization{
			Name:     input.OrganizationName,
			OrgType:  model.OrganizationType(input.Role),
			Status:   model.OrgStatusActive,
			Location: input.Location,
			Email:    input.Email,
		}
	}

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	if account.Organization != nil && s.memberships != nil {
		if err := s.memberships.RecordMembership(ctx, account.Organization.ID.String(), user.ID.String(), model.MemberRoleOwner); err != nil {
			slog.WarnContext(ctx, "failed to record organization owner", "organization_id", account.Organization.ID, "error", err)
		}
	}

	// The account is committed; a failed email can be retried with
	// ResendVerification.
	if err := s.sendVerification(user, code); err != nil {
		slog.WarnContext(ctx, "failed to send verification email", "user_id", user.ID, "error", err)
	}

	token, err := s.tokenManager.Generate(user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &SignupOutput{
		User:  user,
		Token: token,
	}, nil
}

type CreateAdminInput struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Password  string `json:"password" validate:"required,min=8"`
}

// CreateAdmin creates an already verified administrator. Admins cannot sign
// up over HTTP.
func (s *UserService) CreateAdmin(ctx context.Context, input CreateAdminInput) (*model.User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	if err := auth.CheckStrength(input.Password); err != nil {
		return nil, err
	}

	user := &model.User{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Role:      model.RoleAdmin,
		Status:    model.StatusActive,
	}
	password, err := s.factorService.PasswordFactor(input.Password)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateAccount(ctx, &repository.Account{User: user, Factors: []*model.UserFactor{password}}); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) newAccount(user *model.User, password string) (*repository.Account, string, error) {
	passwordFactor, err := s.factorService.PasswordFactor(password)
	if err != nil {
		return nil, "", err
	}
	verification := s.factorService.VerificationFactor()

	return &repository.Account{
		User:    user,
		Factors: []*model.UserFactor{passwordFactor, verification},
	}, verification.Material, nil
}

func (s *UserService) sendVerification(user *model.User, code string) error {
	if s.emailService == nil {
		return nil
	}
	link := fmt.Sprintf(
		"%s/api/auth/signup/verify?code=%s&user=%s",
		s.config.BaseURL,
		code,
		user.ID.String(),
	)
	return mailer.SendVerificationEmail(s.emailService, user.Email, mailer.VerificationTemplateData{
		FirstName:        user.FirstName,
		Role:             string(user.Role),
		VerificationCode: code,
		VerificationLink: link,
	})
}

type VerifyInput struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

// VerifyEmail handles email verification
func (s *UserService) VerifyEmail(ctx context.Context, input VerifyInput) error {
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		return fmt.Errorf("%w: invalid user ID", domain.ErrInvalidInput)
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.EmailVerified() {
		return domain.ErrAlreadyVerified
	}

	if err := s.factorService.ConsumeVerificationCode(ctx, userID, input.Code); err != nil {
		return err
	}

	user.Status = model.StatusActive
	if err := s.repo.UpdateStatus(ctx, userID, model.StatusActive); err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	s.refresh(ctx, user)
	return nil
}

// ResendVerification resends the verification email
func (s *UserService) ResendVerification(ctx context.Context, userID uuid.UUID) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.EmailVerified() {
		return domain.ErrAlreadyVerified
	}

	code, err := s.factorService.IssueVerificationCode(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.sendVerification(user, code); err != nil {
		return fmt.Errorf("sending verification email: %w", err)
	}

	return nil
}

// CurrentUser returns the user, served from cache when possible.
func (s *UserService) CurrentUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := s.cacheService.GetOrSet(ctx, userCacheKey(id), &user, func() (interface{}, error) {
		return s.repo.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Subject is the identity view of a user the rest of the platform reasons
// about.
type Subject struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	EmailVerified  bool       `json:"email_verified"`
	Role           model.Role `json:"role"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
}

func (s *UserService) CurrentSubject(ctx context.Context, id uuid.UUID) (*Subject, error) {
	user, err := s.CurrentUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Subject{
		ID:             user.ID,
		Email:          user.Email,
		EmailVerified:  user.EmailVerified(),
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
	}, nil
}

type UpdateProfileInput struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

// UpdateProfile changes the user's own profile and pushes the new snapshot
// to their live sessions.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*model.User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	s.refresh(ctx, user)
	return user, nil
}

type ListUsersInput struct {
	Role   model.Role       `json:"role"`
	Status model.UserStatus `json:"status"`
	Offset int              `json:"offset"`
	Limit  int              `json:"limit"`
}

type ListUsersOutput struct {
	Users []*model.User `json:"users"`
	Total int64         `json:"total"`
}

func (s *UserService) ListUsers(ctx context.Context, input ListUsersInput) (*ListUsersOutput, error) {
	users, total, err := s.repo.FindAllPaginated(ctx,
		repository.UserFilter{Role: input.Role, Status: input.Status},
		repository.Page{Offset: input.Offset, Limit: input.Limit},
	)
	if err != nil {
		return nil, err
	}
	return &ListUsersOutput{Users: users, Total: total}, nil
}

// SetStatus lets an admin lock, suspend or reactivate an account.
func (s *UserService) SetStatus(ctx context.Context, id uuid.UUID, status model.UserStatus) (*model.User, error) {
	switch status {
	case model.StatusActive, model.StatusLocked, model.StatusSuspended:
	default:
		return nil, fmt.Errorf("%w: unsupported status %q", domain.ErrInvalidInput, status)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == model.RoleAdmin && status != model.StatusActive {
		return nil, fmt.Errorf("%w: administrators cannot be suspended", domain.ErrInvalidInput)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	user.Status = status

	s.refresh(ctx, user)
	return user, nil
}

// refresh drops the cached user and publishes it to live sessions.
func (s *UserService) refresh(ctx context.Context, user *model.User) {
	if err := s.cacheService.Delete(ctx, userCacheKey(user.ID)); err != nil && !errors.Is(err, domain.ErrNotFound) {
		slog.WarnContext(ctx, "failed to invalidate cached user", "user_id", user.ID, "error", err)
	}
	s.sessions.Publish(user)
}
