// Package delivery sends composed emails to a lead and records the touch.
package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"

	"revenue_automation_backend/internal/agents"
	"revenue_automation_backend/internal/archive"
	"revenue_automation_backend/internal/email"
	"revenue_automation_backend/internal/leads/domain"
	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/platform/logger"
)

// ContactToucher updates the lead's last contact time.
type ContactToucher interface {
	TouchLastContact(ctx context.Context, leadID uuid.UUID, at time.Time) error
}

// Sender identifies the From line of pipeline emails.
type Sender struct {
	Address string
	Name    string
}

// Delivery is one email bound for a lead.
type Delivery struct {
	Lead       repository.Lead
	Email      agents.Email
	Categories []string
	CustomArgs map[string]string
	// ArchiveKey names the stored copy of the HTML body. Empty skips archiving.
	ArchiveKey string
}

type Deliverer struct {
	mailer       email.Sender
	archive      archive.Archive
	interactions repository.InteractionStore
	contacts     ContactToucher
	from         Sender
	log          *logger.Logger
	now          func() time.Time
}

func New(
	mailer email.Sender,
	store archive.Archive,
	interactions repository.InteractionStore,
	contacts ContactToucher,
	from Sender,
	log *logger.Logger,
) *Deliverer {
	if store == nil {
		store = archive.Noop{}
	}
	return &Deliverer{
		mailer:       mailer,
		archive:      store,
		interactions: interactions,
		contacts:     contacts,
		from:         from,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Deliver sends the email, records an outbound interaction and touches the
// lead. A send failure writes nothing. Archiving never fails the delivery.
func (d *Deliverer) Deliver(ctx context.Context, msg Delivery) (time.Time, error) {
	err := d.mailer.Send(ctx, email.Message{
		To:         msg.Lead.Email,
		From:       d.from.Address,
		FromName:   d.from.Name,
		Subject:    msg.Email.Subject,
		HTML:       msg.Email.HTMLBody,
		Text:       msg.Email.TextBody,
		Categories: msg.Categories,
		CustomArgs: msg.CustomArgs,
	})
	if err != nil {
		return time.Time{}, err
	}

	sentAt := d.now()
	subject := msg.Email.Subject
	status := domain.InteractionStatusSent
	if _, err := d.interactions.CreateInteraction(ctx, repository.CreateInteractionParams{
		WorkspaceID: msg.Lead.WorkspaceID,
		LeadID:      msg.Lead.ID,
		Channel:     domain.ChannelEmail,
		Direction:   domain.DirectionOutbound,
		Subject:     &subject,
		Content:     msg.Email.HTMLBody,
		Status:      &status,
		SentAt:      sentAt,
	}); err != nil {
		return time.Time{}, err
	}
	if err := d.contacts.TouchLastContact(ctx, msg.Lead.ID, sentAt); err != nil {
		return time.Time{}, err
	}

	if msg.ArchiveKey != "" {
		if err := d.archive.Store(ctx, msg.ArchiveKey, msg.Email.HTMLBody); err != nil {
			d.log.Warn("failed to archive sent email", "key", msg.ArchiveKey, "error", err)
		}
	}
	return sentAt, nil
}
