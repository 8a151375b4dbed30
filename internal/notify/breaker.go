package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

type BreakerConfig struct {
	Name string
	// ConsecutiveFailures opens the circuit. Zero means 5.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a probe. Zero means 30s.
	OpenTimeout time.Duration
}

// BreakerSender stops calling a failing email provider for a while so a
// reminder run does not stall on every recipient.
type BreakerSender struct {
	next EmailSender
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerSender(next EmailSender, cfg BreakerConfig, log *slog.Logger) *BreakerSender {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = "email"
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	log = log.With(slog.String("component", "notify.breaker"))

	threshold := cfg.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Missing contact data says nothing about provider health.
			return err == nil || errors.Is(err, ErrNoContact)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("email circuit state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return &BreakerSender{next: next, cb: cb}
}

func (b *BreakerSender) Send(ctx context.Context, msg TemplateMessage) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &DeliveryError{Provider: "breaker", To: msg.To, Err: err}
	}
	return err
}

func (b *BreakerSender) State() gobreaker.State {
	return b.cb.State()
}

var _ EmailSender = (*BreakerSender)(nil)
