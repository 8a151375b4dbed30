package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tutora/backend/internal/observability/metrics"
)

var smsTracer = otel.Tracer("tutora/backend/internal/notify/sms")

// SMSSender delivers plain-text reminders to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	// CountryCode is prefixed to local numbers that do not start with '+'.
	CountryCode string
}

type TwilioSMSSender struct {
	api         messageCreator
	from        string
	countryCode string
	log         *slog.Logger
	metrics     *metrics.NotifyMetrics
}

// NewTwilioSMSSender returns nil unless credentials and a sender number are set.
func NewTwilioSMSSender(cfg TwilioConfig, log *slog.Logger, m *metrics.NotifyMetrics) *TwilioSMSSender {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioSMSSender(client.Api, cfg, log, m)
}

func newTwilioSMSSender(api messageCreator, cfg TwilioConfig, log *slog.Logger, m *metrics.NotifyMetrics) *TwilioSMSSender {
	if log == nil {
		log = slog.Default()
	}
	if cfg.CountryCode == "" {
		cfg.CountryCode = "+961"
	}
	return &TwilioSMSSender{
		api:         api,
		from:        cfg.FromNumber,
		countryCode: cfg.CountryCode,
		log:         log.With(slog.String("component", "notify.twilio")),
		metrics:     m,
	}
}

func (s *TwilioSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if s == nil || s.api == nil {
		return errors.New("notify: twilio client not configured")
	}
	to = s.e164(to)
	if to == "" {
		return ErrNoContact
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("notify: sms body required")
	}

	_, span := smsTracer.Start(ctx, "notify.twilio.send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		s.metrics.ObserveSend("sms", "failed")
		s.log.ErrorContext(ctx, "twilio send failed", slog.Any("err", err))
		return &DeliveryError{Provider: "twilio", To: to, Err: err}
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	s.metrics.ObserveSend("sms", "sent")
	s.log.InfoContext(ctx, "sms sent via twilio", slog.String("sid", sid))
	return nil
}

func (s *TwilioSMSSender) e164(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	return s.countryCode + strings.TrimLeft(phone, "0")
}

var _ SMSSender = (*TwilioSMSSender)(nil)
