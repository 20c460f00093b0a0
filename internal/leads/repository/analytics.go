package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"revenue_automation_backend/internal/leads/domain"
)

// LeadAnalytics is one per-day rollup row.
type LeadAnalytics struct {
	WorkspaceID           uuid.UUID
	LeadID                uuid.UUID
	MetricDate            time.Time
	Touches               int
	ResponseTimeMinutes   *int
	ConversionProbability float64
	PipelineStage         domain.LeadStatus
}

// UpsertLeadAnalytics writes the row for (lead, metric date), replacing any
// earlier computation for the same day.
func (r *Repository) UpsertLeadAnalytics(ctx context.Context, row LeadAnalytics) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_analytics (
			workspace_id, lead_id, metric_date, touches, response_time_minutes,
			conversion_probability, pipeline_stage
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (lead_id, metric_date) DO UPDATE SET
			touches = EXCLUDED.touches,
			response_time_minutes = EXCLUDED.response_time_minutes,
			conversion_probability = EXCLUDED.conversion_probability,
			pipeline_stage = EXCLUDED.pipeline_stage,
			updated_at = now()
	`, row.WorkspaceID, row.LeadID, row.MetricDate, row.Touches, row.ResponseTimeMinutes,
		row.ConversionProbability, row.PipelineStage)
	return err
}
