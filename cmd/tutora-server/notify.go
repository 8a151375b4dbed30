package main

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"tutora/backend/internal/config"
	"tutora/backend/internal/notify"
	"tutora/backend/internal/observability/metrics"
)

// newEmailSender builds the configured provider behind a circuit breaker.
// The stub provider only logs.
func newEmailSender(ctx context.Context, cfg config.Config, log *slog.Logger, m *metrics.NotifyMetrics) (notify.EmailSender, error) {
	var sender notify.EmailSender

	switch cfg.EmailProvider {
	case "sendgrid":
		sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, log, m)
		if sg == nil {
			return nil, fmt.Errorf("sendgrid api key is required")
		}
		sender = sg

	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SESRegion))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		sender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, log, m)

	default:
		log.Warn("email provider is stub; messages are logged, not sent")
		return notify.NewStubEmailSender(log), nil
	}

	return notify.NewBreakerSender(sender, notify.BreakerConfig{Name: cfg.EmailProvider}, log), nil
}

// newSMSSender returns nil when Twilio is not configured.
func newSMSSender(cfg config.Config, log *slog.Logger, m *metrics.NotifyMetrics) notify.SMSSender {
	s := notify.NewTwilioSMSSender(notify.TwilioConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		FromNumber: cfg.TwilioFromNumber,
	}, log, m)
	if s == nil {
		log.Info("twilio not configured; balance reminders go by email only")
		return nil
	}
	return s
}
