// Package email delivers transactional email over SMTP.
package email

import (
	"context"

	"kejani_backend/platform/config"
)

// Sender abstracts transactional email delivery so callers never deal with
// SMTP directly.
type Sender interface {
	SendWelcomeEmail(ctx context.Context, toEmail, name string) error
	SendBookingRequestedEmail(ctx context.Context, toEmail, clientName, scheduledDate string) error
	SendBookingStatusEmail(ctx context.Context, toEmail, status, scheduledDate string) error
	SendBookingReminderEmail(ctx context.Context, toEmail, scheduledDate string) error
	SendPaymentReceiptEmail(ctx context.Context, toEmail, receiptNumber string, amountCents int64) error
	SendAgentVerifiedEmail(ctx context.Context, toEmail, agentName string) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NewSender returns the configured sender, or a no-op when email delivery is
// disabled (local development, CI).
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

type NoopSender struct{}

func (NoopSender) SendWelcomeEmail(context.Context, string, string) error { return nil }

func (NoopSender) SendBookingRequestedEmail(context.Context, string, string, string) error {
	return nil
}

func (NoopSender) SendBookingStatusEmail(context.Context, string, string, string) error { return nil }

func (NoopSender) SendBookingReminderEmail(context.Context, string, string) error { return nil }

func (NoopSender) SendPaymentReceiptEmail(context.Context, string, string, int64) error { return nil }

func (NoopSender) SendAgentVerifiedEmail(context.Context, string, string) error { return nil }

func (NoopSender) SendCustomEmail(context.Context, string, string, string) error { return nil }

var _ Sender = NoopSender{}
