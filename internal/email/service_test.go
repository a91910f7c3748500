package email

import (
	"testing"
	"testing/fstest"

	"github.com/dangerclosesec/pathway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Email.From = "no-reply@example.com"
	cfg.Email.FromName = "Pathway"
	return cfg
}

func TestLoadEmbeddedTemplates(t *testing.T) {
	s, err := NewEmailService(testConfig(), ProviderLog)
	require.NoError(t, err)

	for _, name := range []string{
		"new_account_verification",
		"application_status",
		"application_response",
		"application_received",
	} {
		assert.Contains(t, s.Templates, name)
	}
}

func TestRenderTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/emails/hello/html.tmpl":      {Data: []byte("<p>Hi {{.Name}}</p>")},
		"templates/emails/hello/plaintext.tmpl": {Data: []byte("Hi {{.Name}} & co")},
	}
	s, err := newService(testConfig(), ProviderLog, fsys)
	require.NoError(t, err)

	html, text, err := s.renderTemplate("hello", map[string]string{"Name": "<Ada>"})
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi &lt;Ada&gt;</p>", html)
	assert.Equal(t, "Hi <Ada> & co", text)

	_, _, err = s.renderTemplate("missing", nil)
	assert.Error(t, err)

	assert.NoError(t, s.SendEmail(EmailData{To: "a@example.com", TemplateName: "hello", TemplateData: map[string]string{"Name": "Ada"}}))
}

func TestNewServiceRejectsUnknownProvider(t *testing.T) {
	_, err := newService(testConfig(), Provider("pigeon"), fstest.MapFS{})
	assert.Error(t, err)

	_, err = newService(testConfig(), ProviderSendgrid, fstest.MapFS{})
	assert.ErrorContains(t, err, "SENDGRID_API_KEY")
}
