package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"revenue_automation_backend/internal/leads/domain"
)

type Interaction struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	LeadID      uuid.UUID
	Channel     domain.Channel
	Direction   domain.Direction
	Subject     *string
	Content     string
	Status      *string
	SentAt      time.Time
}

type CreateInteractionParams struct {
	WorkspaceID uuid.UUID
	LeadID      uuid.UUID
	Channel     domain.Channel
	Direction   domain.Direction
	Subject     *string
	Content     string
	Status      *string
	SentAt      time.Time
}

const interactionColumns = `id, workspace_id, lead_id, channel, direction, subject, content, status, sent_at`

func scanInteraction(s rowScanner) (Interaction, error) {
	var i Interaction
	err := s.Scan(&i.ID, &i.WorkspaceID, &i.LeadID, &i.Channel, &i.Direction, &i.Subject, &i.Content, &i.Status, &i.SentAt)
	return i, err
}

func (r *Repository) CreateInteraction(ctx context.Context, params CreateInteractionParams) (Interaction, error) {
	sentAt := params.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	return scanInteraction(r.pool.QueryRow(ctx, `
		INSERT INTO interactions (workspace_id, lead_id, channel, direction, subject, content, status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+interactionColumns,
		params.WorkspaceID, params.LeadID, params.Channel, params.Direction, params.Subject, params.Content,
		params.Status, sentAt,
	))
}

// ListInteractionsInWindow returns interactions with from <= sent_at <= to,
// oldest first.
func (r *Repository) ListInteractionsInWindow(ctx context.Context, leadID uuid.UUID, from, to time.Time) ([]Interaction, error) {
	return r.queryInteractions(ctx, `
		SELECT `+interactionColumns+`
		FROM interactions
		WHERE lead_id = $1 AND sent_at >= $2 AND sent_at <= $3
		ORDER BY sent_at ASC
	`, leadID, from, to)
}

func (r *Repository) listRecentInteractions(ctx context.Context, leadID uuid.UUID, limit int) ([]Interaction, error) {
	return r.queryInteractions(ctx, `
		SELECT `+interactionColumns+`
		FROM interactions
		WHERE lead_id = $1
		ORDER BY sent_at DESC
		LIMIT $2
	`, leadID, limit)
}

func (r *Repository) queryInteractions(ctx context.Context, sql string, args ...any) ([]Interaction, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Interaction, 0)
	for rows.Next() {
		item, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
