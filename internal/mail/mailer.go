package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/pingmatch/ping/internal/config"
)

// Mailer delivers verification emails.
type Mailer interface {
	SendVerificationCode(to, code string) error
}

// New returns an SMTP mailer when a host is configured, otherwise a
// console mailer that logs the code instead of sending it.
func New(cfg *config.Config, log *slog.Logger) Mailer {
	if cfg.Mail.SMTPHost == "" {
		return &ConsoleMailer{Log: log}
	}
	return &SMTPMailer{
		Addr: cfg.Mail.SMTPHost + ":" + cfg.Mail.SMTPPort,
		From: cfg.Mail.From,
	}
}

type SMTPMailer struct {
	Addr string
	From string
}

func (m *SMTPMailer) SendVerificationCode(to, code string) error {
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Your Ping verification code\r\n\r\nYour verification code is %s\r\n",
		m.From, to, code,
	)
	if err := smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(body)); err != nil {
		return fmt.Errorf("failed to send verification mail: %w", err)
	}
	return nil
}

// ConsoleMailer is the unconfigured fallback used in development.
type ConsoleMailer struct {
	Log *slog.Logger
}

func (m *ConsoleMailer) SendVerificationCode(to, code string) error {
	m.Log.Info("verification code (mail not configured)", "to", to, "code", code)
	return nil
}
