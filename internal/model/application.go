// internal/model/application.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
	ApplicationAdmitted ApplicationStatus = "admitted"
)

// ApplicationStatuses lists every status in lifecycle order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationPending,
	ApplicationApproved,
	ApplicationRejected,
	ApplicationAdmitted,
}

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	for _, known := range ApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationRejected || s == ApplicationAdmitted
}

// StudentResponse is the applicant's answer to an approved application.
type StudentResponse string

const (
	ResponseAccepted StudentResponse = "accepted"
	ResponseDeclined StudentResponse = "declined"
)

// Application links an applicant to an offering. ApplicantID, OfferingID,
// OrganizationID and AppliedAt are written once at creation.
type Application struct {
	ID              uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ApplicantID     uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_applications_applicant_offering" json:"applicant_id"`
	OfferingID      uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_applications_applicant_offering" json:"offering_id"`
	OrganizationID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"organization_id"`
	Status          ApplicationStatus `gorm:"type:application_status;not null;default:'pending'" json:"status"`
	StudentResponse *StudentResponse  `gorm:"type:student_response" json:"student_response"`
	AppliedAt       time.Time         `gorm:"not null" json:"applied_at"`
	RespondedAt     *time.Time        `json:"responded_at,omitempty"`
	ReviewedAt      *time.Time        `json:"reviewed_at,omitempty"`
	ReviewedByID    *uuid.UUID        `gorm:"type:uuid" json:"reviewed_by_id,omitempty"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Responded reports whether the applicant already answered an approval.
func (a *Application) Responded() bool {
	return a.StudentResponse != nil
}
