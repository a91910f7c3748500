package service

import (
	"errors"
	"fmt"

	"github.com/dangerclosesec/pathway/internal/domain"
)

// storeFailure marks an unexpected repository error as a store failure.
func storeFailure(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

// storeFailureUnless passes the expected domain errors through and marks
// anything else as a store failure.
func storeFailureUnless(err error, expected ...error) error {
	for _, e := range expected {
		if errors.Is(err, e) {
			return err
		}
	}
	return storeFailure(err)
}
