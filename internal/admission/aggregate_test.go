package admission_test

import (
	"testing"
	"time"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := admission.Aggregate(nil)
		assert.Equal(t, 0, s.Total)
		for _, status := range model.ApplicationStatuses {
			assert.Equal(t, 0, s.ByStatus[status])
		}
	})

	t.Run("counts sum to total", func(t *testing.T) {
		student := uuid.New()
		orgA, orgB := uuid.New(), uuid.New()
		accepted := model.ResponseAccepted
		declined := model.ResponseDeclined

		apps := []model.Application{
			{ID: uuid.New(), ApplicantID: student, OrganizationID: orgA, Status: model.ApplicationPending},
			{ID: uuid.New(), ApplicantID: student, OrganizationID: orgA, Status: model.ApplicationApproved, StudentResponse: &declined},
			{ID: uuid.New(), ApplicantID: student, OrganizationID: orgB, Status: model.ApplicationAdmitted, StudentResponse: &accepted},
			{ID: uuid.New(), ApplicantID: student, OrganizationID: orgB, Status: model.ApplicationRejected},
			{ID: uuid.New(), ApplicantID: student, OrganizationID: orgB, Status: model.ApplicationPending},
		}

		s := admission.Aggregate(apps)
		assert.Equal(t, 5, s.Total)
		assert.Equal(t, 2, s.ByStatus[model.ApplicationPending])
		assert.Equal(t, 1, s.ByStatus[model.ApplicationApproved])
		assert.Equal(t, 1, s.ByStatus[model.ApplicationAdmitted])
		assert.Equal(t, 1, s.ByStatus[model.ApplicationRejected])
		assert.Equal(t, 2, s.ByOrganization[orgA])
		assert.Equal(t, 3, s.ByOrganization[orgB])
		assert.Equal(t, 1, s.ByResponse[model.ResponseAccepted])
		assert.Equal(t, 1, s.ByResponse[model.ResponseDeclined])

		sum := 0
		for _, n := range s.ByStatus {
			sum += n
		}
		assert.Equal(t, len(apps), sum)
	})
}

func TestSortByAppliedAt(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	apps := []model.Application{
		{ID: uuid.New(), AppliedAt: base.Add(3 * time.Hour)},
		{ID: uuid.New(), AppliedAt: base},
		{ID: uuid.New(), AppliedAt: base.Add(time.Hour)},
	}

	admission.SortByAppliedAt(apps)
	require.Len(t, apps, 3)
	assert.True(t, apps[0].AppliedAt.Equal(base))
	assert.True(t, apps[1].AppliedAt.Equal(base.Add(time.Hour)))
	assert.True(t, apps[2].AppliedAt.Equal(base.Add(3*time.Hour)))

	// Re-sorting a sorted slice leaves the order unchanged.
	order := []uuid.UUID{apps[0].ID, apps[1].ID, apps[2].ID}
	admission.SortByAppliedAt(apps)
	assert.Equal(t, order, []uuid.UUID{apps[0].ID, apps[1].ID, apps[2].ID})
}
