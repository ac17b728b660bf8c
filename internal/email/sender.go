// Package email renders and delivers the lead notification e-mails.
package email

import (
	"context"

	"funnel_backend/platform/config"
)

// Sender delivers notification e-mails to funnel owners.
type Sender interface {
	SendHotLeadAlert(ctx context.Context, toEmail string, lead LeadSummary) error
	SendFollowUpReminder(ctx context.Context, toEmail string, lead LeadSummary) error
}

// NoopSender discards every message. It is used when e-mail is disabled.
type NoopSender struct{}

func (NoopSender) SendHotLeadAlert(context.Context, string, LeadSummary) error { return nil }

func (NoopSender) SendFollowUpReminder(context.Context, string, LeadSummary) error { return nil }

// NewSender returns an SMTP sender, or NoopSender when e-mail is disabled.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName())
}
