// Package followup executes follow-up tasks created by qualification or by
// the API once they fall due.
package followup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"revenue_automation_backend/internal/agents"
	"revenue_automation_backend/internal/archive"
	"revenue_automation_backend/internal/delivery"
	"revenue_automation_backend/internal/events"
	"revenue_automation_backend/internal/leads/domain"
	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/internal/scheduler"
	"revenue_automation_backend/platform/apperr"
	"revenue_automation_backend/platform/logger"
)

const (
	emailCategory  = "follow-up"
	defaultSummary = "Automated follow-up sent"
)

type Composer interface {
	ComposeFollowUp(ctx context.Context, lc repository.LeadContext, task repository.FollowUpTask) (agents.Email, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, msg delivery.Delivery) (time.Time, error)
}

type Stores struct {
	Leads     repository.LeadContextReader
	FollowUps repository.FollowUpStore
	Timeline  repository.TimelineWriter
}

type Processor struct {
	stores    Stores
	composer  Composer
	deliverer Deliverer
	publisher events.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewProcessor(stores Stores, composer Composer, deliverer Deliverer, publisher events.Publisher, log *logger.Logger) *Processor {
	return &Processor{
		stores:    stores,
		composer:  composer,
		deliverer: deliverer,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ProcessTask is the asynq handler for the follow-up queue.
func (p *Processor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := scheduler.ParseFollowUpPayload(task)
	if err != nil {
		return err
	}
	return p.Process(ctx, payload)
}

// Process sends the follow-up for one task. A task is completed at most once;
// redelivered jobs for a COMPLETED task return without side effects.
func (p *Processor) Process(ctx context.Context, payload scheduler.FollowUpPayload) error {
	workspaceID, leadID, taskID, err := parseFollowUp(payload)
	if err != nil {
		return err
	}
	log := p.log.WithLead(workspaceID.String(), leadID.String())

	task, err := p.stores.FollowUps.GetFollowUpTask(ctx, workspaceID, taskID)
	if err != nil {
		return err
	}
	if task.Status == domain.TaskStatusCompleted {
		log.Info("follow-up task already completed", "taskId", taskID)
		return nil
	}
	if task.LeadID != leadID {
		return apperr.BadRequest("follow-up task does not belong to lead")
	}

	lc, err := p.stores.Leads.GetLeadContext(ctx, workspaceID, leadID)
	if err != nil {
		return err
	}
	if lc.Lead.Status.IsTerminal() {
		return p.skip(ctx, log, lc.Lead, task)
	}

	email, err := p.composer.ComposeFollowUp(ctx, lc, task)
	if err != nil {
		return err
	}
	if _, err := p.deliverer.Deliver(ctx, delivery.Delivery{
		Lead:       lc.Lead,
		Email:      email,
		Categories: []string{emailCategory},
		CustomArgs: map[string]string{
			"leadId": leadID.String(),
			"taskId": taskID.String(),
		},
		ArchiveKey: archive.FollowUpKey(workspaceID.String(), leadID.String(), taskID.String()),
	}); err != nil {
		return err
	}

	changed, err := p.stores.FollowUps.CompleteFollowUpTask(ctx, taskID, p.now())
	if err != nil {
		return err
	}
	if !changed {
		log.Warn("follow-up task completed by another job", "taskId", taskID)
		return nil
	}

	summary := defaultSummary
	if task.Notes != nil && *task.Notes != "" {
		summary = *task.Notes
	}
	if err := p.timeline(ctx, lc.Lead, repository.EventTypeFollowUpCompleted, repository.EventTitleFollowUpCompleted,
		summary, map[string]any{"taskId": taskID.String(), "subject": email.Subject}); err != nil {
		return err
	}
	log.Info("follow-up sent", "taskId", taskID)

	p.publisher.Publish(ctx, events.FollowUpCompleted(workspaceID, leadID, taskID))
	return nil
}

// skip closes the task without sending when the lead left the pipeline.
func (p *Processor) skip(ctx context.Context, log *logger.Logger, lead repository.Lead, task repository.FollowUpTask) error {
	changed, err := p.stores.FollowUps.CompleteFollowUpTask(ctx, task.ID, p.now())
	if err != nil || !changed {
		return err
	}
	log.Info("follow-up skipped for closed lead", "taskId", task.ID, "status", lead.Status)
	return p.timeline(ctx, lead, repository.EventTypeFollowUpSkipped, repository.EventTitleFollowUpSkipped,
		fmt.Sprintf("Lead status %s cancels scheduled follow-ups", lead.Status),
		map[string]any{"taskId": task.ID.String(), "status": lead.Status})
}

func (p *Processor) timeline(ctx context.Context, lead repository.Lead, eventType, title, summary string, metadata map[string]any) error {
	_, err := p.stores.Timeline.CreateTimelineEvent(ctx, repository.CreateTimelineEventParams{
		WorkspaceID: lead.WorkspaceID,
		LeadID:      lead.ID,
		ActorType:   repository.ActorTypeAgent,
		ActorName:   repository.ActorNameFollowUpAutomation,
		EventType:   eventType,
		Title:       title,
		Summary:     repository.TruncateSummary(summary, repository.TimelineSummaryMaxLen),
		Metadata:    metadata,
	})
	return err
}

func parseFollowUp(payload scheduler.FollowUpPayload) (workspaceID, leadID, taskID uuid.UUID, err error) {
	if workspaceID, err = uuid.Parse(payload.WorkspaceID); err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, apperr.BadRequest("invalid workspace id")
	}
	if leadID, err = uuid.Parse(payload.LeadID); err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, apperr.BadRequest("invalid lead id")
	}
	if taskID, err = uuid.Parse(payload.TaskID); err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, apperr.BadRequest("invalid task id")
	}
	return workspaceID, leadID, taskID, nil
}
