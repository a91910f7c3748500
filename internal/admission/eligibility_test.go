package admission_test

import (
	"testing"
	"time"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newOffering(orgID uuid.UUID) *model.Offering {
	return &model.Offering{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Kind:           model.OfferingCourse,
		Title:          "Computer Science",
		Status:         model.OfferingActive,
	}
}

func heldApplication(applicantID uuid.UUID, o *model.Offering) model.Application {
	return model.Application{
		ID:             uuid.New(),
		ApplicantID:    applicantID,
		OfferingID:     o.ID,
		OrganizationID: o.OrganizationID,
		Status:         model.ApplicationPending,
		AppliedAt:      time.Now().Add(-time.Hour),
	}
}

func TestCanApply(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	student := uuid.New()
	orgA := uuid.New()
	orgB := uuid.New()

	a1 := newOffering(orgA)
	a2 := newOffering(orgA)
	a3 := newOffering(orgA)
	b1 := newOffering(orgB)

	t.Run("no existing applications", func(t *testing.T) {
		d := admission.CanApply(nil, student, a1, now)
		assert.True(t, d.Allowed)
		assert.NoError(t, d.Err())
	})

	t.Run("duplicate offering", func(t *testing.T) {
		existing := []model.Application{heldApplication(student, a1)}
		d := admission.CanApply(existing, student, a1, now)
		assert.False(t, d.Allowed)
		assert.ErrorIs(t, d.Err(), domain.ErrAlreadyApplied)
	})

	t.Run("second at same organization", func(t *testing.T) {
		existing := []model.Application{heldApplication(student, a1)}
		d := admission.CanApply(existing, student, a2, now)
		assert.True(t, d.Allowed)
	})

	t.Run("third at same organization", func(t *testing.T) {
		existing := []model.Application{heldApplication(student, a1), heldApplication(student, a2)}
		d := admission.CanApply(existing, student, a3, now)
		assert.ErrorIs(t, d.Err(), domain.ErrOrganizationLimitReached)
	})

	t.Run("cap is per organization", func(t *testing.T) {
		existing := []model.Application{heldApplication(student, a1), heldApplication(student, a2)}
		d := admission.CanApply(existing, student, b1, now)
		assert.True(t, d.Allowed)
	})

	t.Run("rejected applications still count", func(t *testing.T) {
		r1 := heldApplication(student, a1)
		r1.Status = model.ApplicationRejected
		r2 := heldApplication(student, a2)
		r2.Status = model.ApplicationRejected
		d := admission.CanApply([]model.Application{r1, r2}, student, a3, now)
		assert.ErrorIs(t, d.Err(), domain.ErrOrganizationLimitReached)
	})

	t.Run("duplicate wins over cap", func(t *testing.T) {
		existing := []model.Application{heldApplication(student, a1), heldApplication(student, a2)}
		d := admission.CanApply(existing, student, a1, now)
		assert.ErrorIs(t, d.Err(), domain.ErrAlreadyApplied)
	})

	t.Run("other applicants ignored", func(t *testing.T) {
		other := uuid.New()
		existing := []model.Application{heldApplication(other, a1), heldApplication(other, a2)}
		d := admission.CanApply(existing, student, a1, now)
		assert.True(t, d.Allowed)
	})

	t.Run("closed offering", func(t *testing.T) {
		closed := newOffering(orgA)
		closed.Status = model.OfferingClosed
		d := admission.CanApply(nil, student, closed, now)
		assert.ErrorIs(t, d.Err(), domain.ErrOfferingClosed)
	})

	t.Run("past deadline", func(t *testing.T) {
		expired := newOffering(orgA)
		deadline := now.Add(-time.Minute)
		expired.Deadline = &deadline
		d := admission.CanApply(nil, student, expired, now)
		assert.ErrorIs(t, d.Err(), domain.ErrOfferingClosed)
	})

	t.Run("cap wins over closed", func(t *testing.T) {
		closed := newOffering(orgA)
		closed.Status = model.OfferingClosed
		existing := []model.Application{heldApplication(student, a1), heldApplication(student, a2)}
		d := admission.CanApply(existing, student, closed, now)
		assert.ErrorIs(t, d.Err(), domain.ErrOrganizationLimitReached)
	})
}

func TestRemaining(t *testing.T) {
	student := uuid.New()
	org := uuid.New()
	a1 := newOffering(org)
	a2 := newOffering(org)

	assert.Equal(t, 2, admission.Remaining(nil, student, org))
	assert.Equal(t, 1, admission.Remaining([]model.Application{heldApplication(student, a1)}, student, org))
	assert.Equal(t, 0, admission.Remaining([]model.Application{
		heldApplication(student, a1),
		heldApplication(student, a2),
		heldApplication(student, newOffering(org)),
	}, student, org))
}
