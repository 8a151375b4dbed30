package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tutora/backend/internal/observability/metrics"
)

var sesTracer = otel.Tracer("tutora/backend/internal/notify/ses")

type sesClient interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESConfig struct {
	FromEmail string
	FromName  string
}

// SESSender sends emails through SES v2 stored templates.
type SESSender struct {
	client    sesClient
	fromEmail string
	fromName  string
	log       *slog.Logger
	metrics   *metrics.NotifyMetrics
}

// NewSESSender returns nil when client is nil.
func NewSESSender(client *sesv2.Client, cfg SESConfig, log *slog.Logger, m *metrics.NotifyMetrics) *SESSender {
	if client == nil {
		return nil
	}
	return newSESSender(client, cfg, log, m)
}

func newSESSender(client sesClient, cfg SESConfig, log *slog.Logger, m *metrics.NotifyMetrics) *SESSender {
	if log == nil {
		log = slog.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Tutora"
	}
	return &SESSender{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		log:       log.With(slog.String("component", "notify.ses")),
		metrics:   m,
	}
}

func (s *SESSender) Send(ctx context.Context, msg TemplateMessage) error {
	if s == nil || s.client == nil {
		return errors.New("notify: SES client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}

	data, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("notify: encode template data: %w", err)
	}

	ctx, span := sesTracer.Start(ctx, "notify.ses.send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("tutora.template_id", msg.TemplateID))

	to := msg.To
	if msg.ToName != "" {
		to = fmt.Sprintf("%s <%s>", msg.ToName, msg.To)
	}
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Template: &types.Template{
				TemplateName: aws.String(msg.TemplateID),
				TemplateData: aws.String(string(data)),
			},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		s.metrics.ObserveSend("email", "failed")
		s.log.ErrorContext(ctx, "SES send failed", slog.Any("err", err), slog.String("template_id", msg.TemplateID))
		return &DeliveryError{Provider: "ses", To: msg.To, Err: err}
	}

	s.metrics.ObserveSend("email", "sent")
	s.log.InfoContext(ctx, "email sent via SES",
		slog.String("template_id", msg.TemplateID),
		slog.String("message_id", aws.ToString(out.MessageId)),
	)
	return nil
}

var _ EmailSender = (*SESSender)(nil)
