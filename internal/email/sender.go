// Package email delivers generated outreach through a transactional provider.
package email

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"revenue_automation_backend/platform/config"
)

// Message is one outbound email. Categories and CustomArgs are provider
// metadata used for reporting and webhook correlation.
type Message struct {
	To         string
	From       string
	FromName   string
	Subject    string
	HTML       string
	Text       string
	Categories []string
	CustomArgs map[string]string
}

func (m Message) validate() error {
	switch {
	case m.To == "":
		return fmt.Errorf("email recipient is required")
	case m.From == "":
		return fmt.Errorf("email sender is required")
	case m.Subject == "":
		return fmt.Errorf("email subject is required")
	}
	return nil
}

// Sender hands a message to the provider. Delivery is not confirmed.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type NoopSender struct{}

func (NoopSender) Send(context.Context, Message) error {
	return nil
}

// NewSender picks SMTP when a host is configured, Brevo when an API key is,
// and NoopSender when email is disabled.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	if cfg.GetSMTPHost() != "" {
		return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword()), nil
	}
	if cfg.GetBrevoAPIKey() != "" {
		return &BrevoSender{
			apiKey:  cfg.GetBrevoAPIKey(),
			baseURL: brevoBaseURL,
			client:  &http.Client{Timeout: 10 * time.Second},
		}, nil
	}
	return nil, fmt.Errorf("email enabled but neither SMTP_HOST nor BREVO_API_KEY is set")
}
