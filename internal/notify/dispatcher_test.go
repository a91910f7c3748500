package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/email"
	"github.com/dangerclosesec/pathway/internal/email/mailer"
	"github.com/dangerclosesec/pathway/internal/mocks"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/notify"
	"github.com/dangerclosesec/pathway/internal/queue"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type outbox struct {
	sent []email.EmailData
	err  error
}

func (o *outbox) SendEmail(data email.EmailData) error {
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, data)
	return nil
}

type published struct {
	key   string
	event queue.Event
}

type recorder struct {
	events []published
}

func (r *recorder) Publish(_ context.Context, key string, e queue.Event) error {
	r.events = append(r.events, published{key, e})
	return nil
}

type fixture struct {
	users         *mocks.MockUserRepositoryIface
	offerings     *mocks.MockOfferingRepositoryIface
	notifications *mocks.MockNotificationRepositoryIface
	organizations *mocks.MockOrganizationRepositoryIface
	mail          *outbox
	events        *recorder
	dispatcher    *notify.Dispatcher

	student  *model.User
	reviewer *model.User
	offering *model.Offering
	org      *model.Organization
	app      model.Application
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	orgID := uuid.New()
	f := &fixture{
		users:         mocks.NewMockUserRepositoryIface(ctrl),
		offerings:     mocks.NewMockOfferingRepositoryIface(ctrl),
		notifications: mocks.NewMockNotificationRepositoryIface(ctrl),
		organizations: mocks.NewMockOrganizationRepositoryIface(ctrl),
		mail:          &outbox{},
		events:        &recorder{},
		student:       &model.User{ID: uuid.New(), Email: "ada@example.com", FirstName: "Ada", LastName: "Obi", Role: model.RoleStudent},
		reviewer:      &model.User{ID: uuid.New(), Email: "admissions@uni.example", FirstName: "Kemi", Role: model.RoleInstitute, OrganizationID: &orgID},
		offering:      &model.Offering{ID: uuid.New(), OrganizationID: orgID, Kind: model.OfferingCourse, Title: "BSc Physics"},
		org:           &model.Organization{ID: orgID, Name: "Northgate University", Email: "admissions@northgate.example"},
	}
	f.organizations.EXPECT().FindByID(gomock.Any(), orgID).Return(f.org, nil).AnyTimes()
	f.app = model.Application{
		ID:             uuid.New(),
		ApplicantID:    f.student.ID,
		OfferingID:     f.offering.ID,
		OrganizationID: orgID,
		Status:         model.ApplicationApproved,
		AppliedAt:      time.Now().UTC(),
	}
	f.dispatcher = notify.NewDispatcher(f.users, f.offerings, f.notifications, "https://pathway.test",
		notify.WithMail(f.mail), notify.WithOrganizations(f.organizations), notify.WithEvents(f.events))
	return f
}

func TestNotifyApplicantOnApproval(t *testing.T) {
	f := newFixture(t)
	change := admission.Change{
		ApplicationID: f.app.ID,
		Event:         admission.EventApprove,
		From:          model.ApplicationPending,
		To:            model.ApplicationApproved,
		Actor:         admission.ActorFromUser(f.reviewer),
		By:            admission.PartyOrganization,
		Notify:        admission.RecipientApplicant,
		At:            time.Now().UTC(),
	}

	f.offerings.EXPECT().FindByID(gomock.Any(), f.offering.ID).Return(f.offering, nil)
	f.users.EXPECT().FindByID(gomock.Any(), f.student.ID).Return(f.student, nil)
	f.notifications.EXPECT().CreateBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, batch []*model.Notification) error {
			require.Len(t, batch, 1)
			assert.Equal(t, f.student.ID, batch[0].UserID)
			assert.Equal(t, model.NotificationAdmission, batch[0].Type)
			assert.Equal(t, "Application approved", batch[0].Title)
			assert.Equal(t, f.app.ID, *batch[0].ApplicationID)
			return nil
		})

	require.NoError(t, f.dispatcher.Notify(context.Background(), admission.Notice{Change: change, Application: f.app}))

	require.Len(t, f.mail.sent, 1)
	sent := f.mail.sent[0]
	assert.Equal(t, "application_status", sent.TemplateName)
	assert.Equal(t, f.student.Email, sent.To)
	assert.Equal(t, f.org.Email, sent.ReplyTo)
	assert.Equal(t, map[string]string{"application_id": f.app.ID.String(), "event": "approve"}, sent.Tags)
	data, ok := sent.TemplateData.(mailer.ApplicationStatusData)
	require.True(t, ok)
	assert.Equal(t, "Northgate University", data.Organization)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, "application.approve", f.events.events[0].event.Type)
	assert.Equal(t, f.app.ID.String(), f.events.events[0].key)
}

func TestNotifyOrganizationOnAccept(t *testing.T) {
	f := newFixture(t)
	accepted := model.ResponseAccepted
	change := admission.Change{
		ApplicationID: f.app.ID,
		Event:         admission.EventAccept,
		From:          model.ApplicationApproved,
		To:            model.ApplicationAdmitted,
		Response:      &accepted,
		Actor:         admission.ActorFromUser(f.student),
		By:            admission.PartyApplicant,
		Notify:        admission.RecipientOrganization,
		At:            time.Now().UTC(),
	}
	second := &model.User{ID: uuid.New(), Email: "dean@uni.example", FirstName: "Tunde"}

	f.offerings.EXPECT().FindByID(gomock.Any(), f.offering.ID).Return(f.offering, nil)
	f.users.EXPECT().FindByOrganization(gomock.Any(), f.app.OrganizationID).Return([]*model.User{f.reviewer, second}, nil)
	f.users.EXPECT().FindByID(gomock.Any(), f.student.ID).Return(f.student, nil)
	f.notifications.EXPECT().CreateBatch(gomock.Any(), gomock.Len(2)).Return(nil)

	require.NoError(t, f.dispatcher.Notify(context.Background(), admission.Notice{Change: change, Application: f.app}))

	require.Len(t, f.mail.sent, 2)
	for _, m := range f.mail.sent {
		assert.Equal(t, "application_response", m.TemplateName)
		assert.Contains(t, m.Subject, "Ada Obi accepted")
		assert.Equal(t, f.student.Email, m.ReplyTo)
		assert.Equal(t, "accept", m.Tags["event"])
	}
	require.Len(t, f.events.events, 1)
	assert.Equal(t, "application.accept", f.events.events[0].event.Type)
}

func TestNotifyStorageFailureSkipsDelivery(t *testing.T) {
	f := newFixture(t)
	change := admission.Change{
		Event:  admission.EventReject,
		By:     admission.PartyOrganization,
		Notify: admission.RecipientApplicant,
	}

	f.offerings.EXPECT().FindByID(gomock.Any(), f.offering.ID).Return(f.offering, nil)
	f.users.EXPECT().FindByID(gomock.Any(), f.student.ID).Return(f.student, nil)
	f.notifications.EXPECT().CreateBatch(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	err := f.dispatcher.Notify(context.Background(), admission.Notice{Change: change, Application: f.app})
	assert.ErrorContains(t, err, "storing notifications")
	assert.Empty(t, f.mail.sent)
	assert.Empty(t, f.events.events)
}

func TestNotifyEmailFailureStillPublishes(t *testing.T) {
	f := newFixture(t)
	f.mail.err = errors.New("smtp refused")
	change := admission.Change{
		Event:  admission.EventReject,
		By:     admission.PartyOrganization,
		To:     model.ApplicationRejected,
		Notify: admission.RecipientApplicant,
	}

	f.offerings.EXPECT().FindByID(gomock.Any(), f.offering.ID).Return(f.offering, nil)
	f.users.EXPECT().FindByID(gomock.Any(), f.student.ID).Return(f.student, nil)
	f.notifications.EXPECT().CreateBatch(gomock.Any(), gomock.Any()).Return(nil)

	err := f.dispatcher.Notify(context.Background(), admission.Notice{Change: change, Application: f.app})
	assert.ErrorContains(t, err, "smtp refused")
	assert.Len(t, f.events.events, 1)
}

func TestNotifyReceived(t *testing.T) {
	f := newFixture(t)
	f.app.Status = model.ApplicationPending

	f.users.EXPECT().FindByOrganization(gomock.Any(), f.app.OrganizationID).Return([]*model.User{f.reviewer}, nil)
	f.notifications.EXPECT().CreateBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, batch []*model.Notification) error {
			require.Len(t, batch, 1)
			assert.Equal(t, f.reviewer.ID, batch[0].UserID)
			assert.Equal(t, "New application", batch[0].Title)
			return nil
		})

	require.NoError(t, f.dispatcher.NotifyReceived(context.Background(), &f.app, f.student, f.offering))
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "application_received", f.mail.sent[0].TemplateName)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, "application.submitted", f.events.events[0].event.Type)
}
