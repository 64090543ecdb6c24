package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jchevalier/auth-api/internal/logging"
)

// Service sends mail over SMTP. SendMail reports which recipients the
// server accepted, mirroring what the auth service needs to surface to its
// callers.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword string) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
	}
}

// SendMail delivers an HTML mail to a single recipient. SMTP is a blocking
// external call with no internal retry; failures propagate to the caller.
func (s *Service) SendMail(ctx context.Context, to, subject, html string) ([]string, error) {
	logger := logging.GetLoggerFromContext(ctx)

	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, html,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	if err := smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg); err != nil {
		logger.Error("failed to send email", "email", to, "error", err)
		return nil, fmt.Errorf("send email: %w", err)
	}

	logger.Info("email sent", "email", to)

	// net/smtp only reports per-recipient rejections as errors, so a nil
	// error means every listed recipient was accepted.
	return []string{to}, nil
}
