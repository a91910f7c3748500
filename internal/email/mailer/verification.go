// internal/email/mailer/verification.go
package mailer

import "github.com/dangerclosesec/pathway/internal/email"

// VerificationTemplateData contains data for the verification email template
type VerificationTemplateData struct {
	FirstName        string
	Role             string
	VerificationCode string
	VerificationLink string
}

// SendVerificationEmail sends a verification email to the user
func SendVerificationEmail(s email.Sender, to string, data VerificationTemplateData) error {
	return s.SendEmail(email.EmailData{
		To:           to,
		Subject:      "Welcome to Pathway! Please verify your email",
		TemplateName: "new_account_verification",
		TemplateData: data,
	})
}
