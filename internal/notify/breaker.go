package notify

import (
	"context"
	"log/slog"

	gobreaker "github.com/sony/gobreaker/v2"

	"meeting-attendance/internal/config"
	"meeting-attendance/internal/email"
)

// BreakerSender stops calling the wrapped sender after repeated consecutive
// failures, so a dead mail transport fails each recipient fast.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerSender(next Sender, cfg config.BreakerConfig) *BreakerSender {
	logger := slog.With("component", "notify")
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        "mail",
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Mail circuit breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerSender{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (b *BreakerSender) Send(ctx context.Context, msg *email.Message) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, msg)
	})
	return err
}

// State reports the breaker state for health output.
func (b *BreakerSender) State() string {
	return b.cb.State().String()
}
