// Package analytics recomputes the per-lead daily metrics rows of a
// workspace. It runs off the critical path: one lead failing never stops the
// others.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/internal/scheduler"
	"revenue_automation_backend/platform/apperr"
	"revenue_automation_backend/platform/logger"
)

// InteractionLister reads a lead's interactions in a time window.
type InteractionLister interface {
	ListInteractionsInWindow(ctx context.Context, leadID uuid.UUID, from, to time.Time) ([]repository.Interaction, error)
}

// Summary reports one refresh run.
type Summary struct {
	Leads   int
	Updated int
	Failed  int
}

type Processor struct {
	store        repository.AnalyticsStore
	interactions InteractionLister
	log          *logger.Logger
	now          func() time.Time
}

func NewProcessor(store repository.AnalyticsStore, interactions InteractionLister, log *logger.Logger) *Processor {
	return &Processor{
		store:        store,
		interactions: interactions,
		log:          log,
		now:          time.Now,
	}
}

// ProcessTask is the asynq handler for the analytics queue.
func (p *Processor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := scheduler.ParseAnalyticsPayload(task)
	if err != nil {
		return err
	}
	_, err = p.Process(ctx, payload)
	return err
}

// Process upserts one row per lead for the payload's window. Only a failure
// to list the workspace's leads fails the job.
func (p *Processor) Process(ctx context.Context, payload scheduler.AnalyticsPayload) (Summary, error) {
	workspaceID, err := uuid.Parse(payload.WorkspaceID)
	if err != nil {
		return Summary{}, apperr.BadRequest("invalid workspace id")
	}
	window, err := p.window(payload)
	if err != nil {
		return Summary{}, err
	}
	log := p.log.With("workspace_id", workspaceID.String(), "window_start", window.Start)

	leads, err := p.store.ListLeadsForAnalytics(ctx, workspaceID)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Leads: len(leads)}
	for _, lead := range leads {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if err := p.refreshLead(ctx, lead, window); err != nil {
			summary.Failed++
			log.Warn("analytics refresh failed for lead", "lead_id", lead.ID.String(), "error", err)
			continue
		}
		summary.Updated++
	}

	log.Info("analytics refreshed", "leads", summary.Leads, "updated", summary.Updated, "failed", summary.Failed)
	return summary, nil
}

func (p *Processor) refreshLead(ctx context.Context, lead repository.Lead, w Window) error {
	interactions, err := p.interactions.ListInteractionsInWindow(ctx, lead.ID, w.Start, w.End)
	if err != nil {
		return err
	}
	return p.store.UpsertLeadAnalytics(ctx, ComputeRollup(lead, interactions, w))
}

// window falls back to the trigger's current window when the payload has
// none.
func (p *Processor) window(payload scheduler.AnalyticsPayload) (Window, error) {
	if payload.WindowStart.IsZero() && payload.WindowEnd.IsZero() {
		start, end := scheduler.AnalyticsWindow(p.now())
		return Window{Start: start, End: end}, nil
	}
	if payload.WindowEnd.Before(payload.WindowStart) {
		return Window{}, apperr.Validation("analytics window ends before it starts")
	}
	return Window{Start: payload.WindowStart.UTC(), End: payload.WindowEnd.UTC()}, nil
}
