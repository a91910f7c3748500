// internal/email/service.go
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	texttemplate "text/template"

	"github.com/dangerclosesec/pathway"
	"github.com/dangerclosesec/pathway/internal/config"
	"github.com/sendgrid/sendgrid-go"
)

// Provider identifies supported email providers
type Provider string

const (
	ProviderSMTP     Provider = "smtp"
	ProviderSendgrid Provider = "sendgrid"
	// ProviderLog renders messages and writes them to the log instead of
	// delivering them.
	ProviderLog Provider = "log"

	DefaultTemplatePath = "templates/emails"
)

// EmailData contains all necessary information for sending an email
type EmailData struct {
	To           string
	From         string
	FromName     string
	Subject      string
	TemplateName string
	TemplateData interface{}

	// ReplyTo, when set, receives replies instead of From.
	ReplyTo string
	// Category groups messages for provider reporting. Defaults to the
	// template name.
	Category string
	// Tags are attached to the message as provider metadata, e.g. the
	// application it concerns.
	Tags map[string]string
}

// Sender is implemented by Service.
type Sender interface {
	SendEmail(data EmailData) error
}

// Service handles email operations
type Service struct {
	config         *config.Config
	provider       Provider
	sendgridClient *sendgrid.Client
	Templates      map[string]*Template
}

type Template struct {
	HTML      *template.Template
	Plaintext *texttemplate.Template
}

// NewEmailService creates a new email service instance
func NewEmailService(config *config.Config, provider Provider) (*Service, error) {
	return newService(config, provider, pathway.EmailFS)
}

func newService(config *config.Config, provider Provider, templateFS fs.FS) (*Service, error) {
	s := &Service{
		config:    config,
		provider:  provider,
		Templates: make(map[string]*Template),
	}

	switch provider {
	case ProviderSendgrid:
		if config.Sendgrid.APIKey == "" {
			return nil, fmt.Errorf("sendgrid provider requires SENDGRID_API_KEY")
		}
		s.sendgridClient = sendgrid.NewSendClient(config.Sendgrid.APIKey)
	case ProviderSMTP, ProviderLog:
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", provider)
	}

	if err := s.loadTemplates(templateFS); err != nil {
		return nil, fmt.Errorf("loading email templates: %w", err)
	}

	return s, nil
}

// loadTemplates loads every template group under DefaultTemplatePath. A
// group is a directory holding html.tmpl and plaintext.tmpl.
func (s *Service) loadTemplates(templateFS fs.FS) error {
	templateGroups, err := fs.ReadDir(templateFS, DefaultTemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read email templates directory: %w", err)
	}

	for _, group := range templateGroups {
		if !group.IsDir() {
			continue
		}

		groupPath := DefaultTemplatePath + "/" + group.Name()

		html, err := template.ParseFS(templateFS, groupPath+"/html.tmpl")
		if err != nil {
			return fmt.Errorf("invalid email template group %s: %w", group.Name(), err)
		}
		text, err := texttemplate.ParseFS(templateFS, groupPath+"/plaintext.tmpl")
		if err != nil {
			return fmt.Errorf("invalid email template group %s: %w", group.Name(), err)
		}

		s.Templates[group.Name()] = &Template{HTML: html, Plaintext: text}
	}

	if len(s.Templates) == 0 {
		return fmt.Errorf("no email templates found")
	}

	return nil
}

// SendEmail sends an email using the configured provider
func (s *Service) SendEmail(data EmailData) error {
	htmlContent, textContent, err := s.renderTemplate(data.TemplateName, data.TemplateData)
	if err != nil {
		return fmt.Errorf("rendering template: %w", err)
	}

	if data.FromName == "" {
		data.FromName = s.config.Email.FromName
	}
	if data.From == "" {
		data.From = s.config.Email.From
	}
	if data.Category == "" {
		data.Category = data.TemplateName
	}

	switch s.provider {
	case ProviderSendgrid:
		if s.config.Sendgrid.From != "" {
			data.From = s.config.Sendgrid.From
		}
		return s.sendWithSendgrid(data, htmlContent, textContent)
	case ProviderSMTP:
		if data.From == "" {
			return fmt.Errorf("missing sender email address (From)")
		}
		return s.sendWithSMTP(data, htmlContent, textContent)
	case ProviderLog:
		slog.Info("Email",
			"to", data.To,
			"reply_to", data.ReplyTo,
			"subject", data.Subject,
			"category", data.Category,
			"tags", data.Tags,
			"template", data.TemplateName,
			"body", textContent,
		)
		return nil
	default:
		return fmt.Errorf("unsupported email provider: %s", s.provider)
	}
}

// renderTemplate renders a template with the given data
func (s *Service) renderTemplate(name string, data interface{}) (string, string, error) {
	tmpl, exists := s.Templates[name]
	if !exists {
		return "", "", fmt.Errorf("template %s not found", name)
	}

	var htmlbuf bytes.Buffer
	if err := tmpl.HTML.Execute(&htmlbuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}

	var textbuf bytes.Buffer
	if err := tmpl.Plaintext.Execute(&textbuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}

	return htmlbuf.String(), textbuf.String(), nil
}
