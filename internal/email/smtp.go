package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"sort"
	"time"
)

// smtpMessage renders a multipart/alternative message. Category and tags
// travel as X-Pathway-* headers.
func smtpMessage(data EmailData, htmlContent, textContent, boundary string) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s <%s>\r\n", data.FromName, data.From)
	fmt.Fprintf(&buf, "To: %s\r\n", data.To)
	if data.ReplyTo != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", data.ReplyTo)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", data.Subject)
	if data.Category != "" {
		fmt.Fprintf(&buf, "X-Pathway-Category: %s\r\n", data.Category)
	}
	keys := make([]string, 0, len(data.Tags))
	for k := range data.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, "X-Pathway-Tag: %s=%s\r\n", k, data.Tags[k])
	}
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	for _, part := range []struct{ contentType, body string }{
		{"text/plain", textContent},
		{"text/html", htmlContent},
	} {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s; charset=utf-8\r\n", part.contentType)
		buf.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
		buf.WriteString(base64.StdEncoding.EncodeToString([]byte(part.body)))
		buf.WriteString("\r\n\r\n")
	}
	fmt.Fprintf(&buf, "--%s--", boundary)

	return buf.Bytes()
}

// sendWithSMTP delivers through the configured relay. Servers without
// credentials configured are contacted without AUTH.
func (s *Service) sendWithSMTP(data EmailData, htmlContent, textContent string) error {
	config := s.config.SMTP

	boundary := fmt.Sprintf("_PATHWAY_BOUNDARY_%d", time.Now().UnixNano())
	msg := smtpMessage(data, htmlContent, textContent, boundary)

	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	if err := smtp.SendMail(addr, auth, data.From, []string{data.To}, msg); err != nil {
		return fmt.Errorf("sending %s email via SMTP: %w", data.TemplateName, err)
	}
	return nil
}
