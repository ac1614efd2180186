// Package notify sends booking confirmation emails.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/schedura-ai/booking-assistant/pkg/logger"
	"github.com/schedura-ai/booking-assistant/pkg/metrics"
)

// Confirmation is the content of one booking confirmation.
type Confirmation struct {
	BusinessName string
	UserName     string
	UserEmail    string
	ServiceName  string
	Date         string
	Time         string
}

// Subject returns the email subject line.
func (c Confirmation) Subject() string {
	return "Booking Confirmation from " + c.BusinessName
}

// Body returns the plain-text email body.
func (c Confirmation) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", c.UserName)
	b.WriteString("This is a confirmation for your appointment.\n\n")
	fmt.Fprintf(&b, "Service: %s\n", c.ServiceName)
	fmt.Fprintf(&b, "Date: %s\n", c.Date)
	fmt.Fprintf(&b, "Time: %s\n\n", c.Time)
	b.WriteString("We look forward to seeing you!\n\n")
	fmt.Fprintf(&b, "Best,\nThe %s Team", c.BusinessName)
	return b.String()
}

// Config holds SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Mailer sends confirmations through an SMTP relay using implicit TLS.
type Mailer struct {
	cfg    Config
	logger *logger.Logger
}

// NewMailer creates a mailer. The sender address is the SMTP username.
func NewMailer(cfg Config, log *logger.Logger) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 465
	}
	if log == nil {
		log = logger.Global()
	}
	return &Mailer{cfg: cfg, logger: log}, nil
}

// Message builds the outgoing message for c.
func (m *Mailer) Message(c Confirmation) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.Username); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(c.UserEmail); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(c.Subject())
	msg.SetBodyString(mail.TypeTextPlain, c.Body())
	return msg, nil
}

// SendConfirmation delivers one confirmation email.
func (m *Mailer) SendConfirmation(ctx context.Context, c Confirmation) error {
	msg, err := m.Message(c)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	start := time.Now()
	err = client.DialAndSendWithContext(ctx, msg)
	metrics.RecordExternalCall("smtp", "send", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}

	m.logger.Info("Confirmation email sent",
		zap.String("service", c.ServiceName),
		zap.String("date", c.Date),
		zap.String("time", c.Time))
	return nil
}
