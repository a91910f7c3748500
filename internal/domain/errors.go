// internal/domain/errors.go
package domain

import "errors"

var (
	// General errors
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// Store-related errors
	ErrStoreUnavailable = errors.New("store unavailable")

	// User-related errors
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPasswordTooWeak     = errors.New("password too weak")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrPasswordsDoNotMatch = errors.New("passwords do not match")
	ErrInvalidRole         = errors.New("invalid role")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrAccountSuspended    = errors.New("account suspended")

	// Verification-related errors
	ErrInvalidVerificationCode = errors.New("invalid verification code")
	ErrVerificationExpired     = errors.New("verification code expired")
	ErrAlreadyVerified         = errors.New("already verified")

	// Organization-related errors
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrInvalidOrgType       = errors.New("invalid organization type")

	// Factor-related errors
	ErrFactorNotFound = errors.New("factor not found")

	// Offering-related errors
	ErrOfferingNotFound = errors.New("offering not found")
	ErrInvalidDeadline  = errors.New("deadline must be in the future")

	// Application eligibility errors
	ErrAlreadyApplied           = errors.New("already applied to this offering")
	ErrOrganizationLimitReached = errors.New("application limit reached for this organization")
	ErrOfferingClosed           = errors.New("offering is closed")

	// Application lifecycle errors
	ErrApplicationNotFound = errors.New("application not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrStaleState          = errors.New("application changed since it was last read")
	ErrNotAuthorized       = errors.New("actor not authorized for this transition")

	// Notification and document errors
	ErrNotificationNotFound = errors.New("notification not found")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrStorageUnavailable   = errors.New("file storage unavailable")
)
