// ABOUTME: Outbound email delivery for verification messages
// ABOUTME: SMTP implementation plus a log-only sender for development

package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/droneworks/droneport/internal/config"
)

// Sender delivers a single plain-text email. Callers treat delivery as
// fire-and-forget; a returned error is logged, never propagated to the
// end user.
type Sender interface {
	Send(ctx context.Context, subject, body, to string) error
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

// NewSMTPSender creates a sender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating SMTP client: %w", err)
	}

	return &SMTPSender{client: client, from: cfg.From}, nil
}

// Send delivers one message.
func (s *SMTPSender) Send(ctx context.Context, subject, body, to string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}

	return nil
}

// LogSender writes messages to the log instead of delivering them. Used
// when email is disabled in the config and in tests.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender() *LogSender {
	return &LogSender{logger: slog.Default().With("component", "mail")}
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, subject, body, to string) error {
	s.logger.Info("email delivery skipped (log sender)", "to", to, "subject", subject, "body", body)
	return nil
}
