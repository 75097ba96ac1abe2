package service

import (
	"context"
	"fmt"
	"strings"

	"reviewhub-backend/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// MailClient is the part of the SendGrid client the email service uses.
type MailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type emailService struct {
	client     MailClient
	fromEmail  string
	fromName   string
	recipients []string
}

// NewEmailService sends through SendGrid to the configured admin recipients.
// Without an API key it returns a sink that only logs.
func NewEmailService(apiKey, fromEmail, fromName string, recipients []string) EmailService {
	if apiKey == "" {
		return logOnlyEmailService{}
	}
	return NewEmailServiceWithClient(sendgrid.NewSendClient(apiKey), fromEmail, fromName, recipients)
}

func NewEmailServiceWithClient(client MailClient, fromEmail, fromName string, recipients []string) EmailService {
	return &emailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		recipients: recipients,
	}
}

func (s *emailService) SendAdminNotification(ctx context.Context, subject, message string) error {
	if len(s.recipients) == 0 {
		logger.Debug("No admin recipients configured, skipping email", "subject", subject)
		return nil
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	m.Subject = subject
	p := mail.NewPersonalization()
	for _, to := range s.recipients {
		p.AddTos(mail.NewEmail("", to))
	}
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/plain", message))

	logger.ExternalServiceCall("sendgrid", "Send", "subject", subject, "recipients", strings.Join(s.recipients, ","))
	response, err := s.client.SendWithContext(ctx, m)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "Send", err, "subject", subject)
	if err != nil {
		return fmt.Errorf("failed to send admin notification: %w", err)
	}
	return nil
}

type logOnlyEmailService struct{}

func (logOnlyEmailService) SendAdminNotification(ctx context.Context, subject, message string) error {
	logger.Info("Email delivery disabled, notification logged only", "subject", subject, "message", message)
	return nil
}
