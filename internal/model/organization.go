// internal/model/organization.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type OrganizationType string

const (
	OrgTypeInstitute OrganizationType = "institute"
	OrgTypeCompany   OrganizationType = "company"
)

type OrganizationStatus string

const (
	OrgStatusActive    OrganizationStatus = "active"
	OrgStatusPending   OrganizationStatus = "pending"
	OrgStatusSuspended OrganizationStatus = "suspended"
)

// Member roles inside an organization.
const (
	MemberRoleOwner    = "owner"
	MemberRoleReviewer = "reviewer"
)

type Organization struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string             `gorm:"type:text;not null" json:"name"`
	OrgType     OrganizationType   `gorm:"type:organization_type;not null" json:"org_type"`
	Status      OrganizationStatus `gorm:"type:organization_status;not null;default:'active'" json:"status"`
	Location    string             `gorm:"type:text" json:"location,omitempty"`
	Email       string             `gorm:"type:citext" json:"email,omitempty"`
	CreatedByID uuid.UUID          `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`

	CreatedBy User               `gorm:"foreignKey:CreatedByID" json:"-"`
	Users     []OrganizationUser `gorm:"foreignKey:OrganizationID" json:"-"`
}

type OrganizationUser struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null"`
	UserID         uuid.UUID `gorm:"type:uuid;not null"`
	Role           string    `gorm:"type:text;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Organization Organization `gorm:"foreignKey:OrganizationID"`
	User         User         `gorm:"foreignKey:UserID"`
}
