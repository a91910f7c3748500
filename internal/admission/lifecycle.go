// internal/admission/lifecycle.go
package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
)

// Party identifies which side of an application may trigger an event.
type Party string

const (
	PartyOrganization Party = "organization"
	PartyApplicant    Party = "applicant"
)

// Recipient selects who is told about a transition.
type Recipient string

const (
	RecipientNone         Recipient = ""
	RecipientApplicant    Recipient = "applicant"
	RecipientOrganization Recipient = "organization"
)

type rule struct {
	to       model.ApplicationStatus
	by       Party
	response *model.StudentResponse
	notify   Recipient
}

func response(r model.StudentResponse) *model.StudentResponse { return &r }

// transitions is the complete lifecycle table. Any (status, event) pair not
// listed here is rejected.
var transitions = map[model.ApplicationStatus]map[Event]rule{
	model.ApplicationPending: {
		EventApprove: {to: model.ApplicationApproved, by: PartyOrganization, notify: RecipientApplicant},
		EventReject:  {to: model.ApplicationRejected, by: PartyOrganization, notify: RecipientApplicant},
	},
	model.ApplicationApproved: {
		EventAccept:  {to: model.ApplicationAdmitted, by: PartyApplicant, response: response(model.ResponseAccepted), notify: RecipientOrganization},
		EventDecline: {to: model.ApplicationApproved, by: PartyApplicant, response: response(model.ResponseDeclined), notify: RecipientNone},
	},
}

// AllowedEvents returns the events the table permits from status for an
// application in app's response state, regardless of actor.
func AllowedEvents(app *model.Application) []Event {
	var out []Event
	for _, e := range []Event{EventApprove, EventReject, EventAccept, EventDecline} {
		r, ok := transitions[app.Status][e]
		if !ok {
			continue
		}
		if r.by == PartyApplicant && app.Responded() {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Change describes a permitted transition before it is persisted.
type Change struct {
	ApplicationID uuid.UUID
	Event         Event
	From          model.ApplicationStatus
	To            model.ApplicationStatus
	Response      *model.StudentResponse
	Actor         Actor
	By            Party
	Notify        Recipient
	At            time.Time
}

// Precondition is the state the stored record must still be in for a
// conditional update to apply.
type Precondition struct {
	Status        model.ApplicationStatus
	ResponseUnset bool
}

// Patch lists the fields a transition writes.
type Patch struct {
	Status          model.ApplicationStatus
	StudentResponse *model.StudentResponse
	RespondedAt     *time.Time
	ReviewedAt      *time.Time
	ReviewedByID    *uuid.UUID
}

// Precondition returns the guard the store must check atomically.
func (c Change) Precondition() Precondition {
	return Precondition{Status: c.From, ResponseUnset: c.By == PartyApplicant}
}

// Patch returns the fields to write for the change.
func (c Change) Patch() Patch {
	at := c.At
	p := Patch{Status: c.To}
	switch c.By {
	case PartyApplicant:
		p.StudentResponse = c.Response
		p.RespondedAt = &at
	case PartyOrganization:
		id := c.Actor.ID
		p.ReviewedAt = &at
		p.ReviewedByID = &id
	}
	return p
}

// Apply returns a copy of app with the change applied.
func (c Change) Apply(app model.Application) model.Application {
	p := c.Patch()
	app.Status = p.Status
	if p.StudentResponse != nil {
		app.StudentResponse = p.StudentResponse
		app.RespondedAt = p.RespondedAt
	}
	if p.ReviewedAt != nil {
		app.ReviewedAt = p.ReviewedAt
		app.ReviewedByID = p.ReviewedByID
	}
	app.UpdatedAt = c.At
	return app
}

// Plan validates event against app without touching any store. A response
// that is already recorded rejects further responses outright. After that
// the caller's expected status is checked, then the transition table, then
// the actor's right to trigger the event.
func Plan(app *model.Application, expected model.ApplicationStatus, event Event, actor Actor, now time.Time) (Change, error) {
	if event.ByApplicant() && app.Responded() {
		return Change{}, fmt.Errorf("%w: applicant already %s", domain.ErrInvalidTransition, *app.StudentResponse)
	}

	if app.Status != expected {
		return Change{}, fmt.Errorf("%w: application is %s, expected %s", domain.ErrStaleState, app.Status, expected)
	}

	r, ok := transitions[app.Status][event]
	if !ok {
		return Change{}, fmt.Errorf("%w: cannot %s a %s application", domain.ErrInvalidTransition, event, app.Status)
	}

	switch r.by {
	case PartyOrganization:
		if !actor.MemberOf(app.OrganizationID) {
			return Change{}, domain.ErrNotAuthorized
		}
	case PartyApplicant:
		if actor.Role != model.RoleStudent || actor.ID != app.ApplicantID {
			return Change{}, domain.ErrNotAuthorized
		}
	}

	return Change{
		ApplicationID: app.ID,
		Event:         event,
		From:          app.Status,
		To:            r.to,
		Response:      r.response,
		Actor:         actor,
		By:            r.by,
		Notify:        r.notify,
		At:            now,
	}, nil
}

// Store is the application persistence the lifecycle depends on.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
	// UpdateIf writes patch only if the stored record still satisfies cond,
	// and returns the updated record. It returns domain.ErrStaleState when
	// the record no longer matches.
	UpdateIf(ctx context.Context, id uuid.UUID, cond Precondition, patch Patch) (*model.Application, error)
}

// Notice is handed to a Notifier after a transition is persisted.
type Notice struct {
	Change      Change
	Application model.Application
}

// Notifier delivers transition notices. Delivery failures never undo a
// persisted transition.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Authorizer is an optional policy check consulted after the built-in guard.
type Authorizer interface {
	CanTransition(ctx context.Context, actor Actor, event Event, app *model.Application) (bool, error)
}

// Journal records persisted transitions.
type Journal interface {
	Record(ctx context.Context, change Change, app *model.Application) error
}

type Option func(*Manager)

func WithNotifier(n Notifier) Option { return func(m *Manager) { m.notifier = n } }

func WithAuthorizer(a Authorizer) Option { return func(m *Manager) { m.authorizer = a } }

func WithJournal(j Journal) Option { return func(m *Manager) { m.journal = j } }

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

// Manager applies lifecycle transitions against a Store.
type Manager struct {
	store      Store
	notifier   Notifier
	authorizer Authorizer
	journal    Journal
	now        func() time.Time
	logger     *slog.Logger
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Transition moves the application from expected by event on behalf of
// actor. A retry after an unknown outcome never applies the change twice:
// a repeated review fails with domain.ErrStaleState and a repeated response
// fails with domain.ErrInvalidTransition.
func (m *Manager) Transition(ctx context.Context, id uuid.UUID, expected model.ApplicationStatus, event Event, actor Actor) (*model.Application, error) {
	app, err := m.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	change, err := Plan(app, expected, event, actor, m.now().UTC())
	if err != nil {
		return nil, err
	}

	if m.authorizer != nil {
		ok, err := m.authorizer.CanTransition(ctx, actor, event, app)
		if err != nil {
			return nil, fmt.Errorf("%w: authorizing %s: %w", domain.ErrStoreUnavailable, event, err)
		}
		if !ok {
			return nil, domain.ErrNotAuthorized
		}
	}

	updated, err := m.store.UpdateIf(ctx, id, change.Precondition(), change.Patch())
	if err != nil {
		return nil, storeError(err)
	}

	if m.journal != nil {
		if err := m.journal.Record(ctx, change, updated); err != nil {
			m.logger.WarnContext(ctx, "failed to journal transition",
				"application_id", id, "event", event, "error", err)
		}
	}

	if m.notifier != nil && change.Notify != RecipientNone {
		if err := m.notifier.Notify(ctx, Notice{Change: change, Application: *updated}); err != nil {
			m.logger.WarnContext(ctx, "failed to deliver transition notice",
				"application_id", id, "event", event, "recipient", change.Notify, "error", err)
		}
	}

	return updated, nil
}

// storeError passes lifecycle sentinels through and marks anything else as
// a store failure.
func storeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrApplicationNotFound),
		errors.Is(err, domain.ErrStaleState),
		errors.Is(err, domain.ErrStoreUnavailable):
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
