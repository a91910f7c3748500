// Package admission holds the application rules that do not depend on a
// particular backend: who may apply, how an application moves through its
// statuses, and how a set of applications is summarised.
package admission

import (
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
)

// Event is something a party does to an application.
type Event string

const (
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventAccept  Event = "accept"
	EventDecline Event = "decline"
)

// Valid reports whether e is a known event.
func (e Event) Valid() bool {
	switch e {
	case EventApprove, EventReject, EventAccept, EventDecline:
		return true
	}
	return false
}

// ByApplicant reports whether e is the applicant's answer to an approval.
func (e Event) ByApplicant() bool {
	return e == EventAccept || e == EventDecline
}

// Actor is the authenticated party attempting a transition.
type Actor struct {
	ID             uuid.UUID
	Role           model.Role
	OrganizationID *uuid.UUID
}

// ActorFromUser builds the actor for an authenticated user.
func ActorFromUser(u *model.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, OrganizationID: u.OrganizationID}
}

// MemberOf reports whether the actor acts on behalf of the organization.
func (a Actor) MemberOf(orgID uuid.UUID) bool {
	return a.Role.IsOrganization() && a.OrganizationID != nil && *a.OrganizationID == orgID
}
