package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoContact is returned when a recipient has neither an email address nor a
// phone number a configured channel can reach.
var ErrNoContact = errors.New("notify: recipient has no reachable contact")

// EmailSender delivers provider-side templated emails. Implementations can be
// swapped (SendGrid, SES, stub) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg TemplateMessage) error
}

// TemplateMessage names a template stored at the provider and the data it is
// rendered with.
type TemplateMessage struct {
	TemplateID string
	To         string
	ToName     string
	Data       map[string]any
}

func (m TemplateMessage) validate() error {
	switch {
	case m.TemplateID == "":
		return errors.New("notify: template id required")
	case m.To == "":
		return ErrNoContact
	}
	return nil
}

// DeliveryError wraps a provider failure. Callers treat it as fire-and-forget.
type DeliveryError struct {
	Provider string
	To       string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notify: %s delivery to %s failed: %v", e.Provider, e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// StubEmailSender logs messages instead of sending them.
type StubEmailSender struct {
	log *slog.Logger
}

func NewStubEmailSender(log *slog.Logger) *StubEmailSender {
	if log == nil {
		log = slog.Default()
	}
	return &StubEmailSender{log: log.With(slog.String("component", "notify.stub"))}
}

func (s *StubEmailSender) Send(ctx context.Context, msg TemplateMessage) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "stub email sender: would send email",
		slog.String("template_id", msg.TemplateID),
		slog.String("to", msg.To),
	)
	return nil
}

var _ EmailSender = (*StubEmailSender)(nil)
