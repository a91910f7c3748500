package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
)

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginOutput struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *UserService) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	// Find the user
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// Verify the password using the factor service
	verified, err := s.factorService.VerifyPassword(ctx, user.ID, input.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, err
		}
		return nil, fmt.Errorf("verifying password: %w", err)
	}

	if !verified {
		return nil, domain.ErrInvalidCredentials
	}

	switch user.Status {
	case model.StatusLocked, model.StatusSuspended:
		return nil, domain.ErrAccountSuspended
	}

	// Generate token
	token, err := s.tokenManager.Generate(user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	s.sessions.Attach(user)

	return &LoginOutput{
		User:  user,
		Token: token,
	}, nil
}

type LogoutInput struct {
	UserID uuid.UUID
}

// Logout drops the user's idle session. Tokens stay valid until they expire.
func (s *UserService) Logout(ctx context.Context, input LogoutInput) error {
	s.sessions.Forget(input.UserID)
	return nil
}
