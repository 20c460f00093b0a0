// Package outreach advances a lead through its outreach sequence one step per
// job. Progress is derived from the enrollment's step.completed events.
package outreach

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
	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/internal/scheduler"
	"revenue_automation_backend/platform/apperr"
	"revenue_automation_backend/platform/logger"
)

const emailCategory = "outreach-step"

// cadenceSlack absorbs clock drift between the database and the worker so a
// delayed job that fires on time is not deferred again.
const cadenceSlack = time.Minute

type Composer interface {
	ComposeOutreach(ctx context.Context, lc repository.LeadContext, step repository.SequenceStep) (agents.Email, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, msg delivery.Delivery) (time.Time, error)
}

type Stores struct {
	Leads     repository.LeadContextReader
	Sequences repository.SequenceStore
	Timeline  repository.TimelineWriter
}

type Processor struct {
	stores    Stores
	composer  Composer
	deliverer Deliverer
	queue     scheduler.DispatchScheduler
	publisher events.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewProcessor(stores Stores, composer Composer, deliverer Deliverer, queue scheduler.DispatchScheduler, publisher events.Publisher, log *logger.Logger) *Processor {
	return &Processor{
		stores:    stores,
		composer:  composer,
		deliverer: deliverer,
		queue:     queue,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ProcessTask is the asynq handler for the outreach queue.
func (p *Processor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := scheduler.ParseDispatchPayload(task)
	if err != nil {
		return err
	}
	return p.Process(ctx, payload)
}

// Process fires at most one sequence step for the lead.
func (p *Processor) Process(ctx context.Context, payload scheduler.DispatchPayload) error {
	workspaceID, leadID, sequenceID, err := parseDispatch(payload)
	if err != nil {
		return err
	}
	log := p.log.WithLead(workspaceID.String(), leadID.String())

	lc, err := p.stores.Leads.GetLeadContext(ctx, workspaceID, leadID)
	if err != nil {
		return err
	}
	if lc.Lead.Status.IsTerminal() {
		log.Info("outreach halted for closed lead", "status", lc.Lead.Status)
		return p.timeline(ctx, lc.Lead, repository.EventTypeOutreachHalted, repository.EventTitleOutreachHalted,
			fmt.Sprintf("Lead status %s stops automated outreach", lc.Lead.Status),
			map[string]any{"status": lc.Lead.Status, "sequenceId": payload.SequenceID})
	}

	seq, err := p.stores.Sequences.ResolveSequence(ctx, workspaceID, sequenceID)
	if apperr.Is(err, apperr.KindNotFound) || (err == nil && len(seq.Steps) == 0) {
		log.Warn("no active outreach sequence", "sequenceId", payload.SequenceID)
		return p.timeline(ctx, lc.Lead, repository.EventTypeSequenceMissing, repository.EventTitleSequenceMissing,
			"No active outreach sequence available", map[string]any{"sequenceId": payload.SequenceID})
	}
	if err != nil {
		return err
	}

	enrollment, err := p.stores.Sequences.FindOrCreateEnrollment(ctx, leadID, seq.ID)
	if err != nil {
		return err
	}
	completed, err := p.stores.Sequences.ListCompletedSteps(ctx, enrollment.ID)
	if err != nil {
		return err
	}

	step := NextStep(seq.Steps, StepIDs(completed))
	if step == nil {
		return p.complete(ctx, log, lc.Lead, seq, enrollment)
	}

	// A retried or duplicate job can arrive before the step's wait is over.
	if remaining := ReadyAt(*step, completed).Sub(p.now()); remaining > cadenceSlack {
		log.Info("outreach step not due yet", "stepId", step.ID, "remaining", remaining)
		return p.enqueueStep(ctx, payload, seq.ID, remaining)
	}

	email, err := p.composer.ComposeOutreach(ctx, lc, *step)
	if err != nil {
		return err
	}
	if _, err := p.deliverer.Deliver(ctx, delivery.Delivery{
		Lead:       lc.Lead,
		Email:      email,
		Categories: []string{emailCategory},
		CustomArgs: map[string]string{
			"leadId":     leadID.String(),
			"sequenceId": seq.ID.String(),
			"stepId":     step.ID.String(),
		},
		ArchiveKey: archive.OutreachKey(workspaceID.String(), leadID.String(), seq.ID.String(), step.ID.String()),
	}); err != nil {
		return err
	}

	recorded, err := p.stores.Sequences.AppendStepCompleted(ctx, enrollment.ID, step.ID, map[string]any{"subject": email.Subject})
	if err != nil {
		return err
	}
	if !recorded {
		// A concurrent duplicate job recorded this step first and owns the
		// rest of the chain.
		log.Warn("step already completed by another job", "stepId", step.ID)
		return nil
	}
	log.Info("outreach step sent", "sequenceId", seq.ID, "stepId", step.ID, "order", step.Order)

	if next := StepAfter(seq.Steps, step.ID); next != nil {
		if err := p.enqueueStep(ctx, payload, seq.ID, next.WaitDuration()); err != nil {
			return err
		}
	} else if err := p.complete(ctx, log, lc.Lead, seq, enrollment); err != nil {
		return err
	}

	p.publisher.Publish(ctx, events.OutreachSent(workspaceID, leadID, seq.ID, step.ID, email.Subject))
	return nil
}

func (p *Processor) enqueueStep(ctx context.Context, payload scheduler.DispatchPayload, sequenceID uuid.UUID, delay time.Duration) error {
	sid := sequenceID.String()
	return p.queue.EnqueueDispatch(ctx, scheduler.DispatchPayload{
		WorkspaceID: payload.WorkspaceID,
		LeadID:      payload.LeadID,
		Priority:    payload.Priority,
		Status:      payload.Status,
		SequenceID:  &sid,
	}, delay)
}

// complete marks the enrollment finished. Only the call that flips the status
// writes the timeline entry and publishes, so duplicate jobs stay silent.
func (p *Processor) complete(ctx context.Context, log *logger.Logger, lead repository.Lead, seq repository.Sequence, enrollment repository.Enrollment) error {
	changed, err := p.stores.Sequences.CompleteEnrollment(ctx, enrollment.ID, p.now())
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	log.Info("outreach sequence completed", "sequenceId", seq.ID)
	if err := p.timeline(ctx, lead, repository.EventTypeSequenceCompleted, repository.EventTitleSequenceCompleted,
		fmt.Sprintf("Sequence %s completed", seq.Name), map[string]any{"sequenceId": seq.ID.String()}); err != nil {
		return err
	}
	p.publisher.Publish(ctx, events.SequenceCompleted(lead.WorkspaceID, lead.ID, seq.ID))
	return nil
}

func (p *Processor) timeline(ctx context.Context, lead repository.Lead, eventType, title, summary string, metadata map[string]any) error {
	_, err := p.stores.Timeline.CreateTimelineEvent(ctx, repository.CreateTimelineEventParams{
		WorkspaceID: lead.WorkspaceID,
		LeadID:      lead.ID,
		ActorType:   repository.ActorTypeAgent,
		ActorName:   repository.ActorNameOutreachAutomation,
		EventType:   eventType,
		Title:       title,
		Summary:     repository.TruncateSummary(summary, repository.TimelineSummaryMaxLen),
		Metadata:    metadata,
	})
	return err
}

func parseDispatch(payload scheduler.DispatchPayload) (uuid.UUID, uuid.UUID, *uuid.UUID, error) {
	workspaceID, err := uuid.Parse(payload.WorkspaceID)
	if err != nil {
		return uuid.Nil, uuid.Nil, nil, apperr.BadRequest("invalid workspace id")
	}
	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return uuid.Nil, uuid.Nil, nil, apperr.BadRequest("invalid lead id")
	}
	if payload.SequenceID == nil || *payload.SequenceID == "" {
		return workspaceID, leadID, nil, nil
	}
	sequenceID, err := uuid.Parse(*payload.SequenceID)
	if err != nil {
		return uuid.Nil, uuid.Nil, nil, apperr.BadRequest("invalid sequence id")
	}
	return workspaceID, leadID, &sequenceID, nil
}
