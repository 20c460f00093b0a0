package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimelineSummaryMaxLen is the canonical maximum character length for timeline event summaries.
// Callers should use TruncateSummary when populating CreateTimelineEventParams.Summary.
const TimelineSummaryMaxLen = 400

// TruncateSummary trims text to maxLen runes, appending "..." on overflow.
// Returns nil for blank input.
func TruncateSummary(text string, maxLen int) *string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if runes := []rune(trimmed); len(runes) > maxLen {
		trimmed = string(runes[:maxLen]) + "..."
	}
	return &trimmed
}

type TimelineEvent struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	LeadID      uuid.UUID
	ActorType   string
	ActorName   string
	EventType   string
	Title       string
	Summary     *string
	Metadata    map[string]any
	CreatedAt   time.Time
}

type CreateTimelineEventParams struct {
	WorkspaceID uuid.UUID
	LeadID      uuid.UUID
	ActorType   string
	ActorName   string
	EventType   string
	Title       string
	Summary     *string
	Metadata    map[string]any
}

func (r *Repository) CreateTimelineEvent(ctx context.Context, params CreateTimelineEventParams) (TimelineEvent, error) {
	metadataJSON, err := json.Marshal(params.Metadata)
	if err != nil {
		return TimelineEvent{}, err
	}
	if params.Metadata == nil {
		metadataJSON = []byte("{}")
	}

	var event TimelineEvent
	// metadata is excluded from RETURNING: we already hold params.Metadata as a Go value.
	err = r.pool.QueryRow(ctx, `
		INSERT INTO timeline_events (
			workspace_id,
			lead_id,
			actor_type,
			actor_name,
			event_type,
			title,
			summary,
			metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, workspace_id, lead_id, actor_type, actor_name, event_type, title, summary, created_at
	`, params.WorkspaceID, params.LeadID, params.ActorType, params.ActorName, params.EventType, params.Title,
		params.Summary, metadataJSON).Scan(
		&event.ID,
		&event.WorkspaceID,
		&event.LeadID,
		&event.ActorType,
		&event.ActorName,
		&event.EventType,
		&event.Title,
		&event.Summary,
		&event.CreatedAt,
	)
	if err != nil {
		return TimelineEvent{}, err
	}
	event.Metadata = params.Metadata

	return event, nil
}

// ListTimelineEvents returns the newest events of a lead first.
func (r *Repository) ListTimelineEvents(ctx context.Context, workspaceID, leadID uuid.UUID, limit int) ([]TimelineEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, workspace_id, lead_id, actor_type, actor_name, event_type, title, summary, metadata, created_at
		FROM timeline_events
		WHERE workspace_id = $1 AND lead_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, workspaceID, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]TimelineEvent, 0)
	for rows.Next() {
		event, err := scanTimelineEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// scanTimelineEvent populates a TimelineEvent from a standard SELECT row.
// Column order must be: id, workspace_id, lead_id, actor_type, actor_name,
// event_type, title, summary, metadata, created_at.
func scanTimelineEvent(s rowScanner) (TimelineEvent, error) {
	var event TimelineEvent
	var rawMetadata []byte
	if err := s.Scan(
		&event.ID,
		&event.WorkspaceID,
		&event.LeadID,
		&event.ActorType,
		&event.ActorName,
		&event.EventType,
		&event.Title,
		&event.Summary,
		&rawMetadata,
		&event.CreatedAt,
	); err != nil {
		return TimelineEvent{}, err
	}
	event.Metadata = unmarshalMap(rawMetadata)
	return event, nil
}
