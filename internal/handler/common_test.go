package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		code int
		name string
	}{
		{domain.ErrAlreadyApplied, http.StatusConflict, "already_applied"},
		{domain.ErrOrganizationLimitReached, http.StatusConflict, "organization_limit_reached"},
		{fmt.Errorf("transition: %w", domain.ErrStaleState), http.StatusConflict, "stale_state"},
		{domain.ErrOfferingClosed, http.StatusUnprocessableEntity, "offering_closed"},
		{domain.ErrInvalidTransition, http.StatusUnprocessableEntity, "invalid_transition"},
		{domain.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
		{domain.ErrEmailNotVerified, http.StatusForbidden, "email_not_verified"},
		{domain.ErrApplicationNotFound, http.StatusNotFound, "not_found"},
		{fmt.Errorf("%w: bad", domain.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
		{fmt.Errorf("%w: dial tcp", domain.ErrStoreUnavailable), http.StatusServiceUnavailable, "unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, name := errorStatus(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.name, name)
		})
	}
}
