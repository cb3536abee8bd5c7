// Package notify fans outbound mail out to many recipients. Each recipient is
// sent independently with its own timeout, and the outcome of every send is
// collected into a Report. Failures are recorded, never retried.
package notify

import (
	"context"
	"log/slog"

	"meeting-attendance/internal/config"
	"meeting-attendance/internal/email"
)

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg *email.Message) error
}

type Kind string

const (
	KindInvite       Kind = "invite"
	KindConfirmation Kind = "confirmation"
	KindBadge        Kind = "badge"
)

// Notification is one message addressed to one recipient.
type Notification struct {
	Kind      Kind
	Recipient string
	Message   *email.Message
}

// LogSender logs messages instead of sending them. Used for dry runs.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender() *LogSender {
	return &LogSender{logger: slog.With("component", "notify", "sender", "log")}
}

func (s *LogSender) Send(ctx context.Context, msg *email.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("Dry run, not sending email", "to", msg.To, "subject", msg.Subject)
	return nil
}

// NewSender builds the configured sender chain: SMTP client (or log sender
// when dry running) wrapped in a circuit breaker.
func NewSender(cfg *config.Config) (Sender, error) {
	var sender Sender
	if cfg.Notify.DryRun {
		sender = NewLogSender()
	} else {
		client, err := email.NewClient(cfg.Email)
		if err != nil {
			return nil, err
		}
		sender = client
	}
	return NewBreakerSender(sender, cfg.Notify.Breaker), nil
}
