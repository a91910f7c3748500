// internal/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	StatusPending   UserStatus = "pending"
	StatusActive    UserStatus = "active"
	StatusLocked    UserStatus = "locked"
	StatusSuspended UserStatus = "suspended"
)

// Role is the part a user plays on the platform.
type Role string

const (
	RoleStudent   Role = "student"
	RoleInstitute Role = "institute"
	RoleCompany   Role = "company"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstitute, RoleCompany, RoleAdmin:
		return true
	}
	return false
}

// IsOrganization reports whether users with this role act on behalf of an organization.
func (r Role) IsOrganization() bool {
	return r == RoleInstitute || r == RoleCompany
}

type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Email          string     `gorm:"type:citext;uniqueIndex;not null" json:"email" szlr:"scope:admin,self,member"`
	FirstName      string     `gorm:"type:text;not null" json:"first_name"`
	LastName       string     `gorm:"type:text" json:"last_name"`
	Phone          string     `gorm:"type:text" json:"phone,omitempty" szlr:"scope:admin,self"`
	Role           Role       `gorm:"type:user_role;not null;default:'student'" json:"role"`
	Status         UserStatus `gorm:"type:user_status;not null;default:'pending'" json:"status"`
	OrganizationID *uuid.UUID `gorm:"type:uuid" json:"organization_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DisplayName joins the user's first and last name.
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// EmailVerified reports whether the user completed email verification.
func (u *User) EmailVerified() bool {
	return u.Status == StatusActive
}

// OwnerID identifies the user a record belongs to.
func (u User) OwnerID() uuid.UUID {
	return u.ID
}

// Organization returns the organization the user acts for, if any.
func (u User) Organization() *uuid.UUID {
	return u.OrganizationID
}
