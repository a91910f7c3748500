// internal/admission/eligibility.go
package admission

import (
	"time"

	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
)

// MaxApplicationsPerOrganization caps how many applications one applicant may
// hold with a single organization.
const MaxApplicationsPerOrganization = 2

// Decision is the outcome of an eligibility check. Reason is one of
// domain.ErrAlreadyApplied, domain.ErrOrganizationLimitReached or
// domain.ErrOfferingClosed when Allowed is false.
type Decision struct {
	Allowed bool
	Reason  error
}

// Err returns nil for an allowed decision and the reason otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return d.Reason
}

func deny(reason error) Decision {
	return Decision{Reason: reason}
}

// CanApply decides whether applicantID may create a new application for
// offering, given the applications they already hold. Applications belonging
// to other applicants are ignored. Rules are evaluated in order: duplicate,
// per-organization cap, then offering availability.
func CanApply(existing []model.Application, applicantID uuid.UUID, offering *model.Offering, now time.Time) Decision {
	atOrganization := 0
	for i := range existing {
		app := &existing[i]
		if app.ApplicantID != applicantID {
			continue
		}
		if app.OfferingID == offering.ID {
			return deny(domain.ErrAlreadyApplied)
		}
		if app.OrganizationID == offering.OrganizationID {
			atOrganization++
		}
	}

	if atOrganization >= MaxApplicationsPerOrganization {
		return deny(domain.ErrOrganizationLimitReached)
	}

	if !offering.Open(now) {
		return deny(domain.ErrOfferingClosed)
	}

	return Decision{Allowed: true}
}

// Remaining returns how many more applications applicantID may submit to orgID.
func Remaining(existing []model.Application, applicantID, orgID uuid.UUID) int {
	n := MaxApplicationsPerOrganization
	for i := range existing {
		if existing[i].ApplicantID == applicantID && existing[i].OrganizationID == orgID {
			n--
		}
	}
	if n < 0 {
		return 0
	}
	return n
}
