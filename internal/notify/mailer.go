package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jhillyerd/enmime"

	"github.com/avenir/tender-board/internal/models"
)

// Message is one outbound notification email.
type Message struct {
	To       models.Recipient
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer delivers a single message. Implementations must treat each call
// independently so one failed recipient does not affect the others.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the relay settings for the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// SMTPMailer sends multipart mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.FromName == "" {
		cfg.FromName = "Tender Board"
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}

	builder := enmime.Builder().
		From(m.cfg.FromName, m.cfg.From).
		To(msg.To.Name, msg.To.Email).
		Subject(msg.Subject).
		HTML([]byte(msg.HTMLBody)).
		Text([]byte(msg.TextBody))

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	if err := builder.Send(enmime.NewSMTP(addr, auth)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To.Email, err)
	}
	return nil
}
