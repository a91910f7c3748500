package email

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendgridMessage builds the v3 message. Tags become custom args so webhook
// events can be traced back to the application they concern.
func sendgridMessage(data EmailData, htmlContent, textContent string) *mail.SGMailV3 {
	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", data.To))

	keys := make([]string, 0, len(data.Tags))
	for k := range data.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.SetCustomArg(k, data.Tags[k])
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(data.FromName, data.From))
	m.Subject = data.Subject
	m.AddPersonalizations(p)
	m.AddContent(
		mail.NewContent("text/plain", textContent),
		mail.NewContent("text/html", htmlContent),
	)
	if data.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", data.ReplyTo))
	}
	if data.Category != "" {
		m.AddCategories(data.Category)
	}
	return m
}

func (s *Service) sendWithSendgrid(data EmailData, htmlContent, textContent string) error {
	response, err := s.sendgridClient.Send(sendgridMessage(data, htmlContent, textContent))
	if err != nil {
		return fmt.Errorf("sending %s email via Sendgrid: %w", data.TemplateName, err)
	}
	if response.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected Sendgrid status code: %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}
