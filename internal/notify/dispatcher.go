// Package notify tells applicants and organizations about application
// activity through stored notifications, email and the event stream.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/email"
	"github.com/dangerclosesec/pathway/internal/email/mailer"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/queue"
	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/google/uuid"
)

// EventSubmitted is published when a new application is stored.
const EventSubmitted = "submitted"

// Message is the payload published for every application event.
type Message struct {
	ApplicationID  uuid.UUID               `json:"application_id"`
	OfferingID     uuid.UUID               `json:"offering_id"`
	OrganizationID uuid.UUID               `json:"organization_id"`
	ApplicantID    uuid.UUID               `json:"applicant_id"`
	Event          string                  `json:"event"`
	From           model.ApplicationStatus `json:"from,omitempty"`
	To             model.ApplicationStatus `json:"to"`
	ActorID        uuid.UUID               `json:"actor_id"`
}

// Dispatcher implements admission.Notifier.
type Dispatcher struct {
	users         repository.UserRepositoryIface
	offerings     repository.OfferingRepositoryIface
	notifications repository.NotificationRepositoryIface
	organizations repository.OrganizationRepositoryIface
	mail          email.Sender
	events        queue.Publisher
	baseURL       string
	logger        *slog.Logger
}

type Option func(*Dispatcher)

// WithMail enables email delivery.
func WithMail(s email.Sender) Option { return func(d *Dispatcher) { d.mail = s } }

// WithOrganizations lets applicant emails name the organization and take
// its address as reply-to.
func WithOrganizations(r repository.OrganizationRepositoryIface) Option {
	return func(d *Dispatcher) { d.organizations = r }
}

// WithEvents enables publishing to the event stream.
func WithEvents(p queue.Publisher) Option { return func(d *Dispatcher) { d.events = p } }

func WithLogger(l *slog.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

func NewDispatcher(
	users repository.UserRepositoryIface,
	offerings repository.OfferingRepositoryIface,
	notifications repository.NotificationRepositoryIface,
	baseURL string,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		users:         users,
		offerings:     offerings,
		notifications: notifications,
		baseURL:       baseURL,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify stores a notification for every recipient of the transition, then
// emails them and publishes the event. Stored notifications are the record
// of delivery, so a storage failure is returned and later channels are
// skipped.
func (d *Dispatcher) Notify(ctx context.Context, n admission.Notice) error {
	app := n.Application
	offering, err := d.offerings.FindByID(ctx, app.OfferingID)
	if err != nil {
		return fmt.Errorf("loading offering: %w", err)
	}

	var recipients []*model.User
	var applicant *model.User
	switch n.Change.Notify {
	case admission.RecipientApplicant:
		applicant, err = d.users.FindByID(ctx, app.ApplicantID)
		if err != nil {
			return fmt.Errorf("loading applicant: %w", err)
		}
		recipients = []*model.User{applicant}
	case admission.RecipientOrganization:
		recipients, err = d.users.FindByOrganization(ctx, app.OrganizationID)
		if err != nil {
			return fmt.Errorf("loading organization members: %w", err)
		}
		applicant, err = d.users.FindByID(ctx, app.ApplicantID)
		if err != nil {
			return fmt.Errorf("loading applicant: %w", err)
		}
	default:
		return nil
	}

	title, body := transitionText(n.Change.Event, offering.Title, applicant.DisplayName())
	link := d.link(n.Change.Notify, app.ID)
	if err := d.store(ctx, recipients, kindOf(offering), title, body, app.ID, link); err != nil {
		return err
	}

	var errs []error
	if d.mail != nil {
		org := d.organization(ctx, n.Change.Notify, app.OrganizationID)
		for _, u := range recipients {
			if err := d.sendTransitionEmail(n.Change, u, applicant, org, offering, link); err != nil {
				errs = append(errs, fmt.Errorf("emailing %s: %w", u.ID, err))
			}
		}
	}

	if err := d.publish(ctx, Message{
		ApplicationID:  app.ID,
		OfferingID:     app.OfferingID,
		OrganizationID: app.OrganizationID,
		ApplicantID:    app.ApplicantID,
		Event:          string(n.Change.Event),
		From:           n.Change.From,
		To:             n.Change.To,
		ActorID:        n.Change.Actor.ID,
	}, n.Change.At); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// NotifyReceived tells the organization's members about a new application.
func (d *Dispatcher) NotifyReceived(ctx context.Context, app *model.Application, applicant *model.User, offering *model.Offering) error {
	members, err := d.users.FindByOrganization(ctx, app.OrganizationID)
	if err != nil {
		return fmt.Errorf("loading organization members: %w", err)
	}

	link := d.link(admission.RecipientOrganization, app.ID)
	title := "New application"
	body := fmt.Sprintf("%s applied for %s.", applicant.DisplayName(), offering.Title)
	if err := d.store(ctx, members, kindOf(offering), title, body, app.ID, link); err != nil {
		return err
	}

	var errs []error
	if d.mail != nil {
		for _, u := range members {
			meta := mailer.ApplicationMeta{ApplicationID: app.ID.String(), Event: EventSubmitted, ReplyTo: applicant.Email}
			err := mailer.SendApplicationReceivedEmail(d.mail, u.Email, meta, mailer.ApplicationReceivedData{
				ReviewerName:  u.FirstName,
				ApplicantName: applicant.DisplayName(),
				OfferingTitle: offering.Title,
				ActionLink:    link,
			})
			if err != nil {
				errs = append(errs, fmt.Errorf("emailing %s: %w", u.ID, err))
			}
		}
	}

	if err := d.publish(ctx, Message{
		ApplicationID:  app.ID,
		OfferingID:     app.OfferingID,
		OrganizationID: app.OrganizationID,
		ApplicantID:    app.ApplicantID,
		Event:          EventSubmitted,
		To:             app.Status,
		ActorID:        applicant.ID,
	}, app.AppliedAt); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (d *Dispatcher) store(ctx context.Context, users []*model.User, kind model.NotificationType, title, body string, appID uuid.UUID, link string) error {
	if len(users) == 0 {
		d.logger.WarnContext(ctx, "notification has no recipients", "application_id", appID, "title", title)
		return nil
	}

	batch := make([]*model.Notification, 0, len(users))
	for _, u := range users {
		id := appID
		batch = append(batch, &model.Notification{
			UserID:        u.ID,
			Type:          kind,
			Title:         title,
			Message:       body,
			ApplicationID: &id,
			ActionURL:     link,
		})
	}
	if err := d.notifications.CreateBatch(ctx, batch); err != nil {
		return fmt.Errorf("storing notifications: %w", err)
	}
	return nil
}

// organization loads the reviewing organization for applicant emails. A
// failed lookup only costs the reply-to address.
func (d *Dispatcher) organization(ctx context.Context, to admission.Recipient, id uuid.UUID) *model.Organization {
	if d.organizations == nil || to != admission.RecipientApplicant {
		return nil
	}
	org, err := d.organizations.FindByID(ctx, id)
	if err != nil {
		d.logger.WarnContext(ctx, "failed to load organization for email", "organization_id", id, "error", err)
		return nil
	}
	return org
}

func (d *Dispatcher) sendTransitionEmail(change admission.Change, to, applicant *model.User, org *model.Organization, offering *model.Offering, link string) error {
	meta := mailer.ApplicationMeta{ApplicationID: change.ApplicationID.String(), Event: string(change.Event)}
	switch change.By {
	case admission.PartyOrganization:
		data := mailer.ApplicationStatusData{
			FirstName:     to.FirstName,
			OfferingTitle: offering.Title,
			Status:        string(change.To),
			ActionLink:    link,
		}
		if org != nil {
			data.Organization = org.Name
			meta.ReplyTo = org.Email
		}
		return mailer.SendApplicationStatusEmail(d.mail, to.Email, meta, data)
	default:
		response := ""
		if change.Response != nil {
			response = string(*change.Response)
		}
		meta.ReplyTo = applicant.Email
		return mailer.SendApplicationResponseEmail(d.mail, to.Email, meta, mailer.ApplicationResponseData{
			ReviewerName:  to.FirstName,
			ApplicantName: applicant.DisplayName(),
			OfferingTitle: offering.Title,
			Response:      response,
			ActionLink:    link,
		})
	}
}

func (d *Dispatcher) publish(ctx context.Context, msg Message, at time.Time) error {
	if d.events == nil {
		return nil
	}
	err := d.events.Publish(ctx, msg.ApplicationID.String(), queue.Event{
		Type:       "application." + msg.Event,
		OccurredAt: at,
		Payload:    msg,
	})
	if err != nil {
		return fmt.Errorf("publishing application.%s: %w", msg.Event, err)
	}
	return nil
}

func (d *Dispatcher) link(to admission.Recipient, appID uuid.UUID) string {
	if to == admission.RecipientOrganization {
		return fmt.Sprintf("%s/organization/applications/%s", d.baseURL, appID)
	}
	return fmt.Sprintf("%s/applications/%s", d.baseURL, appID)
}

func kindOf(o *model.Offering) model.NotificationType {
	if o.Kind == model.OfferingJob {
		return model.NotificationJob
	}
	return model.NotificationAdmission
}

func transitionText(e admission.Event, offering, applicant string) (string, string) {
	switch e {
	case admission.EventApprove:
		return "Application approved", fmt.Sprintf("Your application for %s was approved. Accept or decline the offer.", offering)
	case admission.EventReject:
		return "Application update", fmt.Sprintf("Your application for %s was not successful.", offering)
	case admission.EventAccept:
		return "Offer accepted", fmt.Sprintf("%s accepted the offer for %s.", applicant, offering)
	}
	return "Application update", fmt.Sprintf("An application for %s changed.", offering)
}
