// Package dispatch delivers relance payloads to the outside world: a signed
// webhook to the collections workflow, or an SMTP email when no webhook is
// configured.
package dispatch

import (
	"context"
	"errors"

	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/domain"
	"github.com/Niconord59/crm-axivity-sub001/platform/config"
	"github.com/Niconord59/crm-axivity-sub001/platform/logger"
)

const (
	ChannelWebhook = "webhook"
	ChannelEmail   = "email"
)

// ErrNoChannel is returned when neither a webhook nor SMTP is configured.
var ErrNoChannel = errors.New("no relance channel configured")

// Dispatcher sends one relance. A nil error means delivery was confirmed.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload domain.RelancePayload) error
	Channel() string
}

// Config is what New needs to pick a channel.
type Config interface {
	config.DunningConfig
	config.SMTPConfig
}

// New picks the webhook when configured, then SMTP. It returns ErrNoChannel
// when neither is available.
func New(cfg Config, log *logger.Logger) (Dispatcher, error) {
	if cfg.IsDunningWebhookEnabled() {
		return NewWebhookDispatcher(cfg.GetDunningWebhookURL(), cfg.GetDunningWebhookSecret(), cfg.GetDunningDispatchTimeout(), log), nil
	}
	if cfg.IsSMTPEnabled() {
		return NewEmailDispatcher(EmailConfig{
			Host:      cfg.GetSMTPHost(),
			Port:      cfg.GetSMTPPort(),
			Username:  cfg.GetSMTPUsername(),
			Password:  cfg.GetSMTPPassword(),
			FromEmail: cfg.GetSMTPFromEmail(),
			FromName:  cfg.GetSMTPFromName(),
			Timeout:   cfg.GetDunningDispatchTimeout(),
		}), nil
	}
	return nil, ErrNoChannel
}
