package email

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applicationEmail() EmailData {
	return EmailData{
		To:           "ada@example.com",
		From:         "no-reply@example.com",
		FromName:     "Pathway",
		Subject:      "Your application for BSc Physics was approved",
		TemplateName: "application_status",
		ReplyTo:      "admissions@northgate.example",
		Category:     "application_status",
		Tags:         map[string]string{"application_id": "4f0c", "event": "approve"},
	}
}

func TestSendgridMessage(t *testing.T) {
	body := mail.GetRequestBody(sendgridMessage(applicationEmail(), "<p>hi</p>", "hi"))

	var got struct {
		From             struct{ Email, Name string }
		ReplyTo          struct{ Email string } `json:"reply_to"`
		Subject          string
		Categories       []string
		Personalizations []struct {
			To         []struct{ Email string }
			CustomArgs map[string]string `json:"custom_args"`
		}
		Content []struct{ Type, Value string }
	}
	require.NoError(t, json.Unmarshal(body, &got))

	assert.Equal(t, "no-reply@example.com", got.From.Email)
	assert.Equal(t, "admissions@northgate.example", got.ReplyTo.Email)
	assert.Equal(t, []string{"application_status"}, got.Categories)
	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "ada@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, map[string]string{"application_id": "4f0c", "event": "approve"}, got.Personalizations[0].CustomArgs)
	require.Len(t, got.Content, 2)
	assert.Equal(t, "text/plain", got.Content[0].Type)
	assert.Equal(t, "text/html", got.Content[1].Type)
}

func TestSendgridMessageWithoutExtras(t *testing.T) {
	data := applicationEmail()
	data.ReplyTo, data.Category, data.Tags = "", "", nil

	body := string(mail.GetRequestBody(sendgridMessage(data, "<p>hi</p>", "hi")))
	assert.NotContains(t, body, "reply_to")
	assert.NotContains(t, body, "categories")
	assert.NotContains(t, body, "custom_args")
}

func TestSMTPMessage(t *testing.T) {
	msg := string(smtpMessage(applicationEmail(), "<p>hi</p>", "hi", "BOUNDARY"))

	head, _, ok := strings.Cut(msg, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, head, "From: Pathway <no-reply@example.com>\r\n")
	assert.Contains(t, head, "Reply-To: admissions@northgate.example\r\n")
	assert.Contains(t, head, "X-Pathway-Category: application_status\r\n")
	assert.Contains(t, head, "X-Pathway-Tag: application_id=4f0c\r\nX-Pathway-Tag: event=approve\r\n")
	assert.Contains(t, head, "boundary=BOUNDARY")

	assert.Contains(t, msg, base64.StdEncoding.EncodeToString([]byte("hi")))
	assert.Contains(t, msg, base64.StdEncoding.EncodeToString([]byte("<p>hi</p>")))
	assert.True(t, strings.HasSuffix(msg, "--BOUNDARY--"))
}
