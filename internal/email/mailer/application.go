// internal/email/mailer/application.go
package mailer

import (
	"fmt"

	"github.com/dangerclosesec/pathway/internal/email"
)

// ApplicationMeta identifies the application an email is about. It is sent
// as provider tags, and ReplyTo routes answers to the other party.
type ApplicationMeta struct {
	ApplicationID string
	Event         string
	ReplyTo       string
}

func (m ApplicationMeta) tags() map[string]string {
	tags := map[string]string{}
	if m.ApplicationID != "" {
		tags["application_id"] = m.ApplicationID
	}
	if m.Event != "" {
		tags["event"] = m.Event
	}
	return tags
}

// ApplicationStatusData feeds the application_status template sent to the
// applicant after a review decision.
type ApplicationStatusData struct {
	FirstName     string
	OfferingTitle string
	Organization  string
	Status        string
	ActionLink    string
}

func SendApplicationStatusEmail(s email.Sender, to string, meta ApplicationMeta, data ApplicationStatusData) error {
	return s.SendEmail(email.EmailData{
		To:           to,
		Subject:      fmt.Sprintf("Your application for %s was %s", data.OfferingTitle, data.Status),
		TemplateName: "application_status",
		TemplateData: data,
		ReplyTo:      meta.ReplyTo,
		Tags:         meta.tags(),
	})
}

// ApplicationResponseData feeds the application_response template sent to
// an organization's members when an applicant answers an approval.
type ApplicationResponseData struct {
	ReviewerName  string
	ApplicantName string
	OfferingTitle string
	Response      string
	ActionLink    string
}

func SendApplicationResponseEmail(s email.Sender, to string, meta ApplicationMeta, data ApplicationResponseData) error {
	return s.SendEmail(email.EmailData{
		To:           to,
		Subject:      fmt.Sprintf("%s %s your offer for %s", data.ApplicantName, data.Response, data.OfferingTitle),
		TemplateName: "application_response",
		TemplateData: data,
		ReplyTo:      meta.ReplyTo,
		Tags:         meta.tags(),
	})
}

// ApplicationReceivedData feeds the application_received template sent to an
// organization's members when a new application arrives.
type ApplicationReceivedData struct {
	ReviewerName  string
	ApplicantName string
	OfferingTitle string
	ActionLink    string
}

func SendApplicationReceivedEmail(s email.Sender, to string, meta ApplicationMeta, data ApplicationReceivedData) error {
	return s.SendEmail(email.EmailData{
		To:           to,
		Subject:      fmt.Sprintf("New application for %s", data.OfferingTitle),
		TemplateName: "application_received",
		TemplateData: data,
		ReplyTo:      meta.ReplyTo,
		Tags:         meta.tags(),
	})
}
