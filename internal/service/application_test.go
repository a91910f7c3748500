package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/live"
	"github.com/dangerclosesec/pathway/internal/mocks"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/dangerclosesec/pathway/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var appNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type receivedRecorder struct {
	apps []*model.Application
	err  error
}

func (r *receivedRecorder) NotifyReceived(_ context.Context, app *model.Application, _ *model.User, _ *model.Offering) error {
	r.apps = append(r.apps, app)
	return r.err
}

type applicationFixture struct {
	apps      *mocks.MockApplicationRepositoryIface
	offerings *mocks.MockOfferingRepositoryIface
	received  *receivedRecorder
	svc       *service.ApplicationService
}

func newApplicationFixture(t *testing.T) *applicationFixture {
	ctrl := gomock.NewController(t)
	f := &applicationFixture{
		apps:      mocks.NewMockApplicationRepositoryIface(ctrl),
		offerings: mocks.NewMockOfferingRepositoryIface(ctrl),
		received:  &receivedRecorder{},
	}
	clock := func() time.Time { return appNow }
	lifecycle := admission.NewManager(f.apps, admission.WithClock(clock))
	f.svc = service.NewApplicationService(f.apps, f.offerings, lifecycle, live.NewBroker(nil), nil,
		service.WithReceivedNotifier(f.received),
		service.WithApplicationClock(clock),
	)
	return f
}

func student() *model.User {
	return &model.User{ID: uuid.New(), Email: "ada@example.com", FirstName: "Ada", Role: model.RoleStudent, Status: model.StatusActive}
}

func openOffering(orgID uuid.UUID) *model.Offering {
	deadline := appNow.Add(48 * time.Hour)
	return &model.Offering{ID: uuid.New(), OrganizationID: orgID, Kind: model.OfferingCourse, Title: "Physics", Status: model.OfferingActive, Deadline: &deadline}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("stores a pending application and announces it", func(t *testing.T) {
		f := newApplicationFixture(t)
		applicant := student()
		offering := openOffering(orgID)

		f.offerings.EXPECT().FindByID(ctx, offering.ID).Return(offering, nil)
		f.apps.EXPECT().Find(ctx, repository.ApplicationFilter{ApplicantID: &applicant.ID}).Return(nil, nil)
		f.apps.EXPECT().Create(ctx, gomock.Any(), admission.MaxApplicationsPerOrganization).
			DoAndReturn(func(_ context.Context, app *model.Application, _ int) error {
				app.ID = uuid.New()
				return nil
			})

		app, err := f.svc.Apply(ctx, applicant, offering.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ApplicationPending, app.Status)
		assert.Equal(t, orgID, app.OrganizationID)
		assert.Equal(t, appNow, app.AppliedAt)
		assert.Nil(t, app.StudentResponse)
		require.Len(t, f.received.apps, 1)
		assert.Equal(t, app.ID, f.received.apps[0].ID)
	})

	t.Run("notification failure does not fail the submission", func(t *testing.T) {
		f := newApplicationFixture(t)
		f.received.err = errors.New("smtp down")
		applicant := student()
		offering := openOffering(orgID)

		f.offerings.EXPECT().FindByID(ctx, offering.ID).Return(offering, nil)
		f.apps.EXPECT().Find(ctx, gomock.Any()).Return(nil, nil)
		f.apps.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).Return(nil)

		_, err := f.svc.Apply(ctx, applicant, offering.ID)
		require.NoError(t, err)
	})

	t.Run("rejects unverified applicants", func(t *testing.T) {
		f := newApplicationFixture(t)
		applicant := student()
		applicant.Status = model.StatusPending

		_, err := f.svc.Apply(ctx, applicant, uuid.New())
		assert.ErrorIs(t, err, domain.ErrEmailNotVerified)
	})

	t.Run("rejects organization users", func(t *testing.T) {
		f := newApplicationFixture(t)
		applicant := student()
		applicant.Role = model.RoleCompany

		_, err := f.svc.Apply(ctx, applicant, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("duplicate application", func(t *testing.T) {
		f := newApplicationFixture(t)
		applicant := student()
		offering := openOffering(orgID)
		existing := []model.Application{{ID: uuid.New(), ApplicantID: applicant.ID, OfferingID: offering.ID, OrganizationID: orgID, Status: model.ApplicationRejected}}

		f.offerings.EXPECT().FindByID(ctx, offering.ID).Return(offering, nil)
		f.apps.EXPECT().Find(ctx, gomock.Any()).Return(existing, nil)

		_, err := f.svc.Apply(ctx, applicant, offering.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyApplied)
		assert.Empty(t, f.received.apps)
	})

	t.Run("organization cap", func(t *testing.T) {
		f := newApplicationFixture(t)
		applicant := student()
		offering := openOffering(orgID)
		existing := []model.Application{
			{ID: uuid.New(), ApplicantID: applicant.ID, OfferingID: uuid.New(), OrganizationID: orgID, Status: model.ApplicationPending},
			{ID: uuid.New(), ApplicantID: applicant.ID, OfferingID: uuid.New(), OrganizationID: orgID, Status: model.ApplicationRejected},
		}

		f.offerings.EXPECT().FindByID(ctx, offering.ID).Return(offering, nil)
		f.apps.EXPECT().Find(ctx, gomock.Any()).Return(existing, nil)

		_, err := f.svc.Apply(ctx, applicant, offering.ID)
		assert.ErrorIs(t, err, domain.ErrOrganizationLimitReached)
	})

	t.Run("closed offering", func(t *testing.T) {
		f := newApplicationFixture(t)
		applicant := student()
		offering := openOffering(orgID)
		past := appNow.Add(-time.Hour)
		offering.Deadline = &past

		f.offerings.EXPECT().FindByID(ctx, offering.ID).Return(offering, nil)
		f.apps.EXPECT().Find(ctx, gomock.Any()).Return(nil, nil)

		_, err := f.svc.Apply(ctx, applicant, offering.ID)
		assert.ErrorIs(t, err, domain.ErrOfferingClosed)
	})

	t.Run("lost race against a concurrent submission", func(t *testing.T) {
		f := newApplicationFixture(t)
		applicant := student()
		offering := openOffering(orgID)

		f.offerings.EXPECT().FindByID(ctx, offering.ID).Return(offering, nil)
		f.apps.EXPECT().Find(ctx, gomock.Any()).Return(nil, nil)
		f.apps.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).Return(domain.ErrOrganizationLimitReached)

		_, err := f.svc.Apply(ctx, applicant, offering.ID)
		assert.ErrorIs(t, err, domain.ErrOrganizationLimitReached)
		assert.Empty(t, f.received.apps)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newApplicationFixture(t)
		applicant := student()
		offering := openOffering(orgID)

		f.offerings.EXPECT().FindByID(ctx, offering.ID).Return(offering, nil)
		f.apps.EXPECT().Find(ctx, gomock.Any()).Return(nil, errors.New("connection reset"))

		_, err := f.svc.Apply(ctx, applicant, offering.ID)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})

	t.Run("offering lookup failure", func(t *testing.T) {
		f := newApplicationFixture(t)
		offeringID := uuid.New()

		f.offerings.EXPECT().FindByID(ctx, offeringID).Return(nil, errors.New("finding offering: i/o timeout"))

		_, err := f.svc.Apply(ctx, student(), offeringID)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})

	t.Run("missing offering", func(t *testing.T) {
		f := newApplicationFixture(t)
		offeringID := uuid.New()

		f.offerings.EXPECT().FindByID(ctx, offeringID).Return(nil, domain.ErrOfferingNotFound)

		_, err := f.svc.Apply(ctx, student(), offeringID)
		assert.ErrorIs(t, err, domain.ErrOfferingNotFound)
		assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
	})

	t.Run("create failure", func(t *testing.T) {
		f := newApplicationFixture(t)
		offering := openOffering(orgID)

		f.offerings.EXPECT().FindByID(ctx, offering.ID).Return(offering, nil)
		f.apps.EXPECT().Find(ctx, gomock.Any()).Return(nil, nil)
		f.apps.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).Return(errors.New("creating application: broken pipe"))

		_, err := f.svc.Apply(ctx, student(), offering.ID)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Empty(t, f.received.apps)
	})
}

func TestReviewAndRespond(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	reviewer := admission.Actor{ID: uuid.New(), Role: model.RoleInstitute, OrganizationID: &orgID}

	pending := func(applicantID uuid.UUID) *model.Application {
		return &model.Application{ID: uuid.New(), ApplicantID: applicantID, OfferingID: uuid.New(), OrganizationID: orgID, Status: model.ApplicationPending, AppliedAt: appNow.Add(-time.Hour)}
	}

	t.Run("approve writes the review conditionally", func(t *testing.T) {
		f := newApplicationFixture(t)
		app := pending(uuid.New())

		f.apps.EXPECT().FindByID(ctx, app.ID).Return(app, nil)
		f.apps.EXPECT().UpdateIf(ctx, app.ID, admission.Precondition{Status: model.ApplicationPending}, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, _ admission.Precondition, p admission.Patch) (*model.Application, error) {
				out := *app
				out.Status = p.Status
				out.ReviewedAt = p.ReviewedAt
				out.ReviewedByID = p.ReviewedByID
				return &out, nil
			})

		got, err := f.svc.Review(ctx, reviewer, app.ID, model.ApplicationPending, admission.EventApprove)
		require.NoError(t, err)
		assert.Equal(t, model.ApplicationApproved, got.Status)
		require.NotNil(t, got.ReviewedByID)
		assert.Equal(t, reviewer.ID, *got.ReviewedByID)
	})

	t.Run("review refuses applicant events", func(t *testing.T) {
		f := newApplicationFixture(t)
		_, err := f.svc.Review(ctx, reviewer, uuid.New(), model.ApplicationApproved, admission.EventAccept)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("stale expected status", func(t *testing.T) {
		f := newApplicationFixture(t)
		app := pending(uuid.New())
		app.Status = model.ApplicationRejected

		f.apps.EXPECT().FindByID(ctx, app.ID).Return(app, nil)

		_, err := f.svc.Review(ctx, reviewer, app.ID, model.ApplicationPending, admission.EventApprove)
		assert.ErrorIs(t, err, domain.ErrStaleState)
	})

	t.Run("concurrent write loses", func(t *testing.T) {
		f := newApplicationFixture(t)
		app := pending(uuid.New())

		f.apps.EXPECT().FindByID(ctx, app.ID).Return(app, nil)
		f.apps.EXPECT().UpdateIf(ctx, app.ID, gomock.Any(), gomock.Any()).Return(nil, domain.ErrStaleState)

		_, err := f.svc.Review(ctx, reviewer, app.ID, model.ApplicationPending, admission.EventReject)
		assert.ErrorIs(t, err, domain.ErrStaleState)
	})

	t.Run("accept by the applicant admits", func(t *testing.T) {
		f := newApplicationFixture(t)
		applicant := admission.Actor{ID: uuid.New(), Role: model.RoleStudent}
		app := pending(applicant.ID)
		app.Status = model.ApplicationApproved

		f.apps.EXPECT().FindByID(ctx, app.ID).Return(app, nil)
		f.apps.EXPECT().UpdateIf(ctx, app.ID, admission.Precondition{Status: model.ApplicationApproved, ResponseUnset: true}, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, _ admission.Precondition, p admission.Patch) (*model.Application, error) {
				out := *app
				out.Status = p.Status
				out.StudentResponse = p.StudentResponse
				out.RespondedAt = p.RespondedAt
				return &out, nil
			})

		got, err := f.svc.Respond(ctx, applicant, app.ID, model.ApplicationApproved, admission.EventAccept)
		require.NoError(t, err)
		assert.Equal(t, model.ApplicationAdmitted, got.Status)
		require.NotNil(t, got.StudentResponse)
		assert.Equal(t, model.ResponseAccepted, *got.StudentResponse)
	})

	t.Run("another student cannot respond", func(t *testing.T) {
		f := newApplicationFixture(t)
		app := pending(uuid.New())
		app.Status = model.ApplicationApproved

		f.apps.EXPECT().FindByID(ctx, app.ID).Return(app, nil)

		stranger := admission.Actor{ID: uuid.New(), Role: model.RoleStudent}
		_, err := f.svc.Respond(ctx, stranger, app.ID, model.ApplicationApproved, admission.EventDecline)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("respond refuses review events", func(t *testing.T) {
		f := newApplicationFixture(t)
		applicant := admission.Actor{ID: uuid.New(), Role: model.RoleStudent}
		_, err := f.svc.Respond(ctx, applicant, uuid.New(), model.ApplicationPending, admission.EventApprove)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestScopeFor(t *testing.T) {
	orgID := uuid.New()

	studentActor := admission.Actor{ID: uuid.New(), Role: model.RoleStudent}
	f, err := service.ScopeFor(studentActor)
	require.NoError(t, err)
	require.NotNil(t, f.ApplicantID)
	assert.Equal(t, studentActor.ID, *f.ApplicantID)
	assert.Nil(t, f.OrganizationID)

	f, err = service.ScopeFor(admission.Actor{ID: uuid.New(), Role: model.RoleCompany, OrganizationID: &orgID})
	require.NoError(t, err)
	require.NotNil(t, f.OrganizationID)
	assert.Equal(t, orgID, *f.OrganizationID)

	f, err = service.ScopeFor(admission.Actor{ID: uuid.New(), Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, live.Filter{}, f)

	_, err = service.ScopeFor(admission.Actor{ID: uuid.New(), Role: model.RoleInstitute})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestApplicationQueries(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	member := admission.Actor{ID: uuid.New(), Role: model.RoleInstitute, OrganizationID: &orgID}

	older := model.Application{ID: uuid.New(), ApplicantID: uuid.New(), OrganizationID: orgID, Status: model.ApplicationPending, AppliedAt: appNow.Add(-2 * time.Hour)}
	newer := model.Application{ID: uuid.New(), ApplicantID: uuid.New(), OrganizationID: orgID, Status: model.ApplicationApproved, AppliedAt: appNow.Add(-time.Hour)}

	t.Run("organization list is sorted oldest first", func(t *testing.T) {
		f := newApplicationFixture(t)
		f.apps.EXPECT().Find(ctx, repository.ApplicationFilter{OrganizationID: &orgID}).
			Return([]model.Application{newer, older}, nil)

		apps, err := f.svc.ListForOrganization(ctx, member, "")
		require.NoError(t, err)
		require.Len(t, apps, 2)
		assert.Equal(t, older.ID, apps[0].ID)
	})

	t.Run("unknown status filter", func(t *testing.T) {
		f := newApplicationFixture(t)
		_, err := f.svc.ListForOrganization(ctx, member, "archived")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("summary counts the scope", func(t *testing.T) {
		f := newApplicationFixture(t)
		f.apps.EXPECT().Find(ctx, repository.ApplicationFilter{OrganizationID: &orgID}).
			Return([]model.Application{newer, older}, nil)

		summary, err := f.svc.Summary(ctx, member)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Total)
		assert.Equal(t, 1, summary.ByStatus[model.ApplicationPending])
		assert.Equal(t, 0, summary.ByStatus[model.ApplicationAdmitted])
	})

	t.Run("get hides other organizations", func(t *testing.T) {
		f := newApplicationFixture(t)
		foreign := older
		foreign.OrganizationID = uuid.New()
		f.apps.EXPECT().FindByID(ctx, foreign.ID).Return(&foreign, nil)

		_, err := f.svc.Get(ctx, member, foreign.ID)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("delete by a student is refused", func(t *testing.T) {
		f := newApplicationFixture(t)
		f.apps.EXPECT().FindByID(ctx, older.ID).Return(&older, nil)

		err := f.svc.Delete(ctx, admission.Actor{ID: older.ApplicantID, Role: model.RoleStudent}, older.ID)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("delete by the organization", func(t *testing.T) {
		f := newApplicationFixture(t)
		f.apps.EXPECT().FindByID(ctx, older.ID).Return(&older, nil)
		f.apps.EXPECT().Delete(ctx, older.ID).Return(nil)

		require.NoError(t, f.svc.Delete(ctx, member, older.ID))
	})

	t.Run("lookup failures are store failures", func(t *testing.T) {
		f := newApplicationFixture(t)
		id := uuid.New()
		f.apps.EXPECT().FindByID(ctx, id).Return(nil, errors.New("finding application: connection refused")).Times(2)

		_, err := f.svc.Get(ctx, member, id)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

		err = f.svc.Delete(ctx, member, id)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})

	t.Run("missing application stays not found", func(t *testing.T) {
		f := newApplicationFixture(t)
		id := uuid.New()
		f.apps.EXPECT().FindByID(ctx, id).Return(nil, domain.ErrApplicationNotFound)

		_, err := f.svc.Get(ctx, member, id)
		assert.ErrorIs(t, err, domain.ErrApplicationNotFound)
		assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}

func TestWatchStreamsScope(t *testing.T) {
	f := newApplicationFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applicant := admission.Actor{ID: uuid.New(), Role: model.RoleStudent}
	app := model.Application{ID: uuid.New(), ApplicantID: applicant.ID, OrganizationID: uuid.New(), Status: model.ApplicationPending}
	f.apps.EXPECT().Find(gomock.Any(), repository.ApplicationFilter{ApplicantID: &applicant.ID}).
		Return([]model.Application{app}, nil).AnyTimes()

	views := make(chan live.View, 4)
	sub, err := f.svc.Watch(ctx, applicant, func(v live.View) { views <- v })
	require.NoError(t, err)
	defer sub.Unsubscribe()

	select {
	case v := <-views:
		assert.Len(t, v.Applications, 1)
		assert.Equal(t, 1, v.Summary.Total)
	case <-time.After(time.Second):
		t.Fatal("no initial view")
	}
}
