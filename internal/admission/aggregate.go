// internal/admission/aggregate.go
package admission

import (
	"sort"

	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
)

// Summary holds the derived counts shown on dashboards.
type Summary struct {
	Total          int                             `json:"total"`
	ByStatus       map[model.ApplicationStatus]int `json:"by_status"`
	ByOrganization map[uuid.UUID]int               `json:"by_organization"`
	ByResponse     map[model.StudentResponse]int   `json:"by_response"`
}

// Aggregate recomputes the summary over the full set. Every known status is
// present in ByStatus, and the ByStatus values always sum to len(apps).
func Aggregate(apps []model.Application) Summary {
	s := Summary{
		Total:          len(apps),
		ByStatus:       make(map[model.ApplicationStatus]int, len(model.ApplicationStatuses)),
		ByOrganization: make(map[uuid.UUID]int),
		ByResponse:     make(map[model.StudentResponse]int),
	}
	for _, status := range model.ApplicationStatuses {
		s.ByStatus[status] = 0
	}

	for i := range apps {
		app := &apps[i]
		s.ByStatus[app.Status]++
		s.ByOrganization[app.OrganizationID]++
		if app.StudentResponse != nil {
			s.ByResponse[*app.StudentResponse]++
		}
	}

	return s
}

// SortByAppliedAt orders apps oldest first. The store delivers results in its
// own order, so callers needing a stable list must sort explicitly.
func SortByAppliedAt(apps []model.Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		if apps[i].AppliedAt.Equal(apps[j].AppliedAt) {
			return apps[i].ID.String() < apps[j].ID.String()
		}
		return apps[i].AppliedAt.Before(apps[j].AppliedAt)
	})
}
