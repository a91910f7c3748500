// internal/service/application.go
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/live"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/google/uuid"
)

// ReceivedNotifier is told about newly stored applications.
type ReceivedNotifier interface {
	NotifyReceived(ctx context.Context, app *model.Application, applicant *model.User, offering *model.Offering) error
}

// ApplicationRecorder mirrors applications into the authorization service.
type ApplicationRecorder interface {
	RecordApplication(ctx context.Context, app *model.Application) error
}

// EventHistory reads the transition journal.
type EventHistory interface {
	Query(ctx context.Context, params repository.EventQuery) ([]model.ApplicationEvent, int64, error)
}

type ApplicationService struct {
	repo      repository.ApplicationRepositoryIface
	offerings repository.OfferingRepositoryIface
	lifecycle *admission.Manager
	broker    *live.Broker
	received  ReceivedNotifier
	recorder  ApplicationRecorder
	history   EventHistory
	now       func() time.Time
	logger    *slog.Logger
}

type ApplicationOption func(*ApplicationService)

func WithReceivedNotifier(n ReceivedNotifier) ApplicationOption {
	return func(s *ApplicationService) { s.received = n }
}

func WithApplicationRecorder(r ApplicationRecorder) ApplicationOption {
	return func(s *ApplicationService) { s.recorder = r }
}

func WithEventHistory(h EventHistory) ApplicationOption {
	return func(s *ApplicationService) { s.history = h }
}

func WithApplicationClock(now func() time.Time) ApplicationOption {
	return func(s *ApplicationService) { s.now = now }
}

func NewApplicationService(
	repo repository.ApplicationRepositoryIface,
	offerings repository.OfferingRepositoryIface,
	lifecycle *admission.Manager,
	broker *live.Broker,
	logger *slog.Logger,
	opts ...ApplicationOption,
) *ApplicationService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ApplicationService{
		repo:      repo,
		offerings: offerings,
		lifecycle: lifecycle,
		broker:    broker,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply submits a new application for offeringID. The eligibility rules are
// checked here against the applicant's current applications and again by the
// repository under a lock, so concurrent submissions cannot exceed them.
func (s *ApplicationService) Apply(ctx context.Context, applicant *model.User, offeringID uuid.UUID) (*model.Application, error) {
	if applicant.Role != model.RoleStudent {
		return nil, domain.ErrNotAuthorized
	}
	if !applicant.EmailVerified() {
		return nil, domain.ErrEmailNotVerified
	}

	offering, err := s.offerings.FindByID(ctx, offeringID)
	if err != nil {
		return nil, storeFailureUnless(err, domain.ErrOfferingNotFound)
	}

	existing, err := s.repo.Find(ctx, repository.ApplicationFilter{ApplicantID: &applicant.ID})
	if err != nil {
		return nil, storeFailure(err)
	}

	now := s.now().UTC()
	if err := admission.CanApply(existing, applicant.ID, offering, now).Err(); err != nil {
		return nil, err
	}

	app := &model.Application{
		ApplicantID:    applicant.ID,
		OfferingID:     offering.ID,
		OrganizationID: offering.OrganizationID,
		Status:         model.ApplicationPending,
		AppliedAt:      now,
	}
	if err := s.repo.Create(ctx, app, admission.MaxApplicationsPerOrganization); err != nil {
		return nil, storeFailureUnless(err,
			domain.ErrUserNotFound, domain.ErrAlreadyApplied, domain.ErrOrganizationLimitReached, domain.ErrOfferingClosed)
	}

	if s.recorder != nil {
		if err := s.recorder.RecordApplication(ctx, app); err != nil {
			s.logger.WarnContext(ctx, "failed to record application relationships", "application_id", app.ID, "error", err)
		}
	}
	if s.received != nil {
		if err := s.received.NotifyReceived(ctx, app, applicant, offering); err != nil {
			s.logger.WarnContext(ctx, "failed to announce new application", "application_id", app.ID, "error", err)
		}
	}

	return app, nil
}

// Review approves or rejects a pending application on behalf of the owning
// organization.
func (s *ApplicationService) Review(ctx context.Context, actor admission.Actor, id uuid.UUID, expected model.ApplicationStatus, event admission.Event) (*model.Application, error) {
	if event != admission.EventApprove && event != admission.EventReject {
		return nil, domain.ErrInvalidTransition
	}
	return s.lifecycle.Transition(ctx, id, expected, event, actor)
}

// Respond records the applicant's answer to an approved application.
func (s *ApplicationService) Respond(ctx context.Context, actor admission.Actor, id uuid.UUID, expected model.ApplicationStatus, event admission.Event) (*model.Application, error) {
	if event != admission.EventAccept && event != admission.EventDecline {
		return nil, domain.ErrInvalidTransition
	}
	return s.lifecycle.Transition(ctx, id, expected, event, actor)
}

// Get returns an application visible to the actor.
func (s *ApplicationService) Get(ctx context.Context, actor admission.Actor, id uuid.UUID) (*model.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailureUnless(err, domain.ErrApplicationNotFound)
	}
	if !canView(actor, app) {
		return nil, domain.ErrNotAuthorized
	}
	return app, nil
}

// ListMine returns the applicant's applications, oldest first.
func (s *ApplicationService) ListMine(ctx context.Context, actor admission.Actor) ([]model.Application, error) {
	apps, err := s.repo.Find(ctx, repository.ApplicationFilter{ApplicantID: &actor.ID})
	if err != nil {
		return nil, storeFailure(err)
	}
	admission.SortByAppliedAt(apps)
	return apps, nil
}

// ListForOrganization returns the applications received by the actor's
// organization, optionally restricted to one status, oldest first.
func (s *ApplicationService) ListForOrganization(ctx context.Context, actor admission.Actor, status model.ApplicationStatus) ([]model.Application, error) {
	if !actor.Role.IsOrganization() || actor.OrganizationID == nil {
		return nil, domain.ErrNotAuthorized
	}
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	apps, err := s.repo.Find(ctx, repository.ApplicationFilter{OrganizationID: actor.OrganizationID, Status: status})
	if err != nil {
		return nil, storeFailure(err)
	}
	admission.SortByAppliedAt(apps)
	return apps, nil
}

// List returns the applications in the actor's scope, oldest first.
// Organizations and admins may restrict the result to one status.
func (s *ApplicationService) List(ctx context.Context, actor admission.Actor, status model.ApplicationStatus) ([]model.Application, error) {
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	switch {
	case actor.Role == model.RoleStudent:
		return s.ListMine(ctx, actor)
	case actor.Role.IsOrganization():
		return s.ListForOrganization(ctx, actor, status)
	case actor.Role == model.RoleAdmin:
		apps, err := s.repo.Find(ctx, repository.ApplicationFilter{Status: status})
		if err != nil {
			return nil, storeFailure(err)
		}
		admission.SortByAppliedAt(apps)
		return apps, nil
	}
	return nil, domain.ErrNotAuthorized
}

// Summary aggregates the applications in the actor's scope.
func (s *ApplicationService) Summary(ctx context.Context, actor admission.Actor) (admission.Summary, error) {
	filter, err := ScopeFor(actor)
	if err != nil {
		return admission.Summary{}, err
	}
	apps, err := s.Load(ctx, filter)
	if err != nil {
		return admission.Summary{}, err
	}
	return admission.Aggregate(apps), nil
}

// History returns the journaled transitions of an application visible to
// the actor, newest first.
func (s *ApplicationService) History(ctx context.Context, actor admission.Actor, id uuid.UUID, page repository.Page) ([]model.ApplicationEvent, int64, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, 0, err
	}
	if s.history == nil {
		return []model.ApplicationEvent{}, 0, nil
	}
	events, total, err := s.history.Query(ctx, repository.EventQuery{ApplicationID: &id, Page: page})
	if err != nil {
		return nil, 0, storeFailure(err)
	}
	return events, total, nil
}

// Delete removes an application. Only admins and the owning organization
// may do so.
func (s *ApplicationService) Delete(ctx context.Context, actor admission.Actor, id uuid.UUID) error {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeFailureUnless(err, domain.ErrApplicationNotFound)
	}
	if actor.Role != model.RoleAdmin && !actor.MemberOf(app.OrganizationID) {
		return domain.ErrNotAuthorized
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeFailureUnless(err, domain.ErrApplicationNotFound)
	}
	return nil
}

// Watch streams the actor's applications: the current set first, then a
// recomputed view after every change in scope.
func (s *ApplicationService) Watch(ctx context.Context, actor admission.Actor, handler live.Handler) (*live.Subscription, error) {
	filter, err := ScopeFor(actor)
	if err != nil {
		return nil, err
	}
	return s.broker.Watch(ctx, filter, s.Load, handler)
}

// Load implements live.Loader.
func (s *ApplicationService) Load(ctx context.Context, f live.Filter) ([]model.Application, error) {
	apps, err := s.repo.Find(ctx, repository.ApplicationFilter{ApplicantID: f.ApplicantID, OrganizationID: f.OrganizationID})
	if err != nil {
		return nil, storeFailure(err)
	}
	return apps, nil
}

// ScopeFor returns the applications an actor may observe: their own for
// students, their organization's for institutes and companies, and every
// application for admins.
func ScopeFor(actor admission.Actor) (live.Filter, error) {
	switch {
	case actor.Role == model.RoleStudent:
		id := actor.ID
		return live.Filter{ApplicantID: &id}, nil
	case actor.Role.IsOrganization() && actor.OrganizationID != nil:
		id := *actor.OrganizationID
		return live.Filter{OrganizationID: &id}, nil
	case actor.Role == model.RoleAdmin:
		return live.Filter{}, nil
	}
	return live.Filter{}, domain.ErrNotAuthorized
}

func canView(actor admission.Actor, app *model.Application) bool {
	return actor.Role == model.RoleAdmin || actor.ID == app.ApplicantID || actor.MemberOf(app.OrganizationID)
}
