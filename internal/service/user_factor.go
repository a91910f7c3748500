// internal/service/user_factor.go
package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dangerclosesec/pathway/internal/auth"
	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/google/uuid"
)

// UserFactorService manages the password and email verification factors.
type UserFactorService struct {
	repo   repository.UserFactorRepositoryIface
	hasher *auth.PasswordHasher
}

func NewUserFactorService(repo repository.UserFactorRepositoryIface, hasher *auth.PasswordHasher) *UserFactorService {
	if hasher == nil {
		hasher = auth.NewPasswordHasher()
	}
	return &UserFactorService{
		repo:   repo,
		hasher: hasher,
	}
}

// PasswordFactor hashes password into a new, unsaved factor.
func (s *UserFactorService) PasswordFactor(password string) (*model.UserFactor, error) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	return &model.UserFactor{
		FactorType: model.FactorHashpass,
		Material:   hashed,
		IsActive:   true,
	}, nil
}

// VerificationFactor returns a new, unsaved email verification factor.
func (s *UserFactorService) VerificationFactor() *model.UserFactor {
	return &model.UserFactor{
		FactorType: model.FactorVerificationCode,
		Material:   generateVerificationCode(),
		IsActive:   true,
	}
}

// VerifyPassword checks if the provided password matches the stored hash for the user
func (s *UserFactorService) VerifyPassword(ctx context.Context, userID uuid.UUID, password string) (bool, error) {
	// Find the password factor
	factor, err := s.repo.FindByUserAndType(ctx, userID, model.FactorHashpass)
	if err != nil {
		if errors.Is(err, domain.ErrFactorNotFound) {
			return false, domain.ErrInvalidCredentials
		}
		return false, fmt.Errorf("finding password factor: %w", err)
	}

	if !factor.IsActive {
		return false, domain.ErrInvalidCredentials
	}

	verified, err := s.hasher.Verify(password, factor.Material)
	if err != nil {
		return false, fmt.Errorf("verifying password: %w", err)
	}

	if verified {
		now := time.Now()
		factor.LastUsedAt = &now
		if err := s.repo.Update(ctx, factor); err != nil {
			// Log the error but don't fail the verification
			slog.WarnContext(ctx, "failed to update last used timestamp", "user_id", userID, "error", err)
		}
	}

	return verified, nil
}

// IssueVerificationCode replaces any outstanding code with a fresh one.
func (s *UserFactorService) IssueVerificationCode(ctx context.Context, userID uuid.UUID) (string, error) {
	factor := s.VerificationFactor()
	factor.UserID = userID
	if err := s.repo.ReplaceVerificationCode(ctx, factor); err != nil {
		return "", fmt.Errorf("storing verification code: %w", err)
	}
	return factor.Material, nil
}

// ConsumeVerificationCode checks code against the newest verification factor
// and deactivates it on success.
func (s *UserFactorService) ConsumeVerificationCode(ctx context.Context, userID uuid.UUID, code string) error {
	factor, err := s.repo.FindByUserAndType(ctx, userID, model.FactorVerificationCode)
	if err != nil {
		if errors.Is(err, domain.ErrFactorNotFound) {
			return domain.ErrInvalidVerificationCode
		}
		return fmt.Errorf("finding verification factor: %w", err)
	}

	if !factor.IsActive {
		return domain.ErrVerificationExpired
	}

	if subtle.ConstantTimeCompare([]byte(factor.Material), []byte(code)) != 1 {
		return domain.ErrInvalidVerificationCode
	}

	now := time.Now()
	factor.VerifiedAt = &now
	factor.LastUsedAt = &now
	factor.IsActive = false

	if err := s.repo.Update(ctx, factor); err != nil {
		return fmt.Errorf("updating factor: %w", err)
	}
	return nil
}

// generateVerificationCode creates a secure random verification code
func generateVerificationCode() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic(err) // This should never happen
	}
	return hex.EncodeToString(bytes)
}
