package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tutora/backend/internal/observability/metrics"
)

var sendgridTracer = otel.Tracer("tutora/backend/internal/notify/sendgrid")

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// SendGridSender sends SendGrid dynamic-template emails.
type SendGridSender struct {
	client    sendgridClient
	fromEmail string
	fromName  string
	log       *slog.Logger
	metrics   *metrics.NotifyMetrics
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, log *slog.Logger, m *metrics.NotifyMetrics) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Tutora"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		log:       log.With(slog.String("component", "notify.sendgrid")),
		metrics:   m,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg TemplateMessage) error {
	if s == nil || s.client == nil {
		return errors.New("notify: sendgrid client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}

	ctx, span := sendgridTracer.Start(ctx, "notify.sendgrid.send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("tutora.template_id", msg.TemplateID))

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	m.SetTemplateID(msg.TemplateID)

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(msg.ToName, msg.To))
	for k, v := range msg.Data {
		p.SetDynamicTemplateData(k, v)
	}
	m.AddPersonalizations(p)

	resp, err := s.client.SendWithContext(ctx, m)
	if err == nil && resp != nil && resp.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		s.metrics.ObserveSend("email", "failed")
		s.log.ErrorContext(ctx, "sendgrid send failed", slog.Any("err", err), slog.String("template_id", msg.TemplateID))
		return &DeliveryError{Provider: "sendgrid", To: msg.To, Err: err}
	}

	s.metrics.ObserveSend("email", "sent")
	s.log.InfoContext(ctx, "email sent via sendgrid", slog.String("template_id", msg.TemplateID), slog.Int("status", resp.StatusCode))
	return nil
}

var _ EmailSender = (*SendGridSender)(nil)
