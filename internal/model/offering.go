// internal/model/offering.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OfferingKind distinguishes courses published by institutes from jobs posted by companies.
type OfferingKind string

const (
	OfferingCourse OfferingKind = "course"
	OfferingJob    OfferingKind = "job"
)

type OfferingStatus string

const (
	OfferingActive OfferingStatus = "active"
	OfferingClosed OfferingStatus = "closed"
)

// Offering is a course or a job posting applicants can apply to.
type Offering struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	Kind           OfferingKind   `gorm:"type:offering_kind;not null" json:"kind"`
	Title          string         `gorm:"type:text;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	ProgramType    string         `gorm:"type:text" json:"program_type,omitempty"`
	AcademicLevel  string         `gorm:"type:text" json:"academic_level,omitempty"`
	Faculty        string         `gorm:"type:text" json:"faculty,omitempty"`
	Duration       string         `gorm:"type:text" json:"duration,omitempty"`
	Intake         int            `gorm:"default:0" json:"intake,omitempty"`
	JobType        string         `gorm:"type:text" json:"job_type,omitempty"`
	Location       string         `gorm:"type:text" json:"location,omitempty"`
	Salary         string         `gorm:"type:text" json:"salary,omitempty"`
	Requirements   pq.StringArray `gorm:"type:text[]" json:"requirements"`
	Qualifications pq.StringArray `gorm:"type:text[]" json:"qualifications"`
	Deadline       *time.Time     `json:"deadline,omitempty"`
	Status         OfferingStatus `gorm:"type:offering_status;not null;default:'active'" json:"status"`
	CreatedByID    uuid.UUID      `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Expired reports whether the offering has a deadline that is before now.
func (o *Offering) Expired(now time.Time) bool {
	return o.Deadline != nil && o.Deadline.Before(now)
}

// Open reports whether the offering accepts applications at now.
func (o *Offering) Open(now time.Time) bool {
	return o.Status == OfferingActive && !o.Expired(now)
}
