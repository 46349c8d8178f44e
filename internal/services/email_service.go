package services

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendWelcomeEmail(email, firstName string) error
}

// mailSender is the part of *gomail.Dialer the service uses.
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	dialer mailSender
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendWelcomeEmail(email, firstName string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Welcome to AbetWorks CRM")

	body := fmt.Sprintf(`
		<h2>Welcome, %s!</h2>
		<p>Your CRM account has been created. You can sign in with %s.</p>
		<p>Best regards,<br>The AbetWorks Team</p>
	`, html.EscapeString(firstName), html.EscapeString(email))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}
