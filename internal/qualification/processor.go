// Package qualification scores leads, applies the orchestrator's decision and
// routes each lead to its next stage.
package qualification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"revenue_automation_backend/internal/agents"
	"revenue_automation_backend/internal/crm"
	"revenue_automation_backend/internal/events"
	"revenue_automation_backend/internal/leads/domain"
	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/internal/scheduler"
	"revenue_automation_backend/platform/apperr"
	"revenue_automation_backend/platform/logger"
)

const (
	frameworkMEDDIC       = "MEDDIC"
	defaultRequalifyDelay = 15 * time.Minute
	minRequalifyDelay     = time.Minute
)

type Qualifier interface {
	Qualify(ctx context.Context, lc repository.LeadContext) (agents.QualificationResult, error)
}

type Orchestrator interface {
	Decide(ctx context.Context, lc repository.LeadContext) (agents.Decision, error)
}

type CRMSyncer interface {
	Sync(ctx context.Context, contact crm.Contact) int
}

// Scheduler is every queue a qualification pass may route to.
type Scheduler interface {
	scheduler.QualificationScheduler
	scheduler.DispatchScheduler
	scheduler.FollowUpScheduler
}

// Stores groups the persistence the processor needs.
type Stores struct {
	Leads     repository.LeadContextReader
	Snapshots repository.QualificationStore
	FollowUps repository.FollowUpStore
	Timeline  repository.TimelineWriter
}

type Processor struct {
	stores         Stores
	qualifier      Qualifier
	orchestrator   Orchestrator
	queue          Scheduler
	crm            CRMSyncer
	publisher      events.Publisher
	log            *logger.Logger
	requalifyDelay time.Duration
	now            func() time.Time
}

func NewProcessor(
	stores Stores,
	qualifier Qualifier,
	orchestrator Orchestrator,
	queue Scheduler,
	crmSyncer CRMSyncer,
	publisher events.Publisher,
	log *logger.Logger,
	requalifyDelay time.Duration,
) *Processor {
	if requalifyDelay <= 0 {
		requalifyDelay = defaultRequalifyDelay
	}
	if requalifyDelay < minRequalifyDelay {
		requalifyDelay = minRequalifyDelay
	}
	return &Processor{
		stores:         stores,
		qualifier:      qualifier,
		orchestrator:   orchestrator,
		queue:          queue,
		crm:            crmSyncer,
		publisher:      publisher,
		log:            log,
		requalifyDelay: requalifyDelay,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// ProcessTask is the asynq handler for the qualification queue.
func (p *Processor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := scheduler.ParseQualificationPayload(task)
	if err != nil {
		return err
	}
	return p.Process(ctx, payload)
}

// Process runs one qualification pass. Both AI calls finish before anything
// is written, so an AI failure leaves no partial state behind.
func (p *Processor) Process(ctx context.Context, payload scheduler.QualificationPayload) error {
	workspaceID, leadID, err := parseIDs(payload.WorkspaceID, payload.LeadID)
	if err != nil {
		return err
	}
	log := p.log.WithLead(workspaceID.String(), leadID.String())

	lc, err := p.stores.Leads.GetLeadContext(ctx, workspaceID, leadID)
	if err != nil {
		return err
	}

	result, err := p.qualifier.Qualify(ctx, lc)
	if err != nil {
		return err
	}
	decision, err := p.orchestrator.Decide(ctx, lc)
	if err != nil {
		return err
	}

	score := result.Score()
	status := resolveStatus(decision, result.Recommendation)
	priority := domain.PriorityForScore(score)
	now := p.now()

	_, err = p.stores.Snapshots.SaveQualification(ctx, repository.SaveQualificationParams{
		WorkspaceID: workspaceID,
		LeadID:      leadID,
		Status:      status,
		Priority:    priority,
		QualifiedAt: now,
		Snapshot: repository.QualificationSnapshot{
			Framework:        frameworkMEDDIC,
			Score:            score,
			Recommendation:   result.Recommendation,
			Metrics:          result.Metrics,
			EconomicBuyer:    result.EconomicBuyer,
			DecisionCriteria: result.DecisionCriteria,
			DecisionProcess:  result.DecisionProcess,
			PainPoints:       result.PainPoints,
			Champion:         result.Champion,
		},
	})
	if err != nil {
		return err
	}
	log.Info("lead qualified", "score", score, "recommendation", result.Recommendation, "status", status, "route", decision.RouteToQueue)

	_, err = p.stores.Timeline.CreateTimelineEvent(ctx, repository.CreateTimelineEventParams{
		WorkspaceID: workspaceID,
		LeadID:      leadID,
		ActorType:   repository.ActorTypeAgent,
		ActorName:   repository.ActorNameQualification,
		EventType:   repository.EventTypeQualificationCompleted,
		Title:       repository.EventTitleQualificationCompleted,
		Summary:     repository.TruncateSummary(fmt.Sprintf("Qualification score %d with recommendation %s", score, result.Recommendation), repository.TimelineSummaryMaxLen),
		Metadata: map[string]any{
			"score":          score,
			"recommendation": result.Recommendation,
			"status":         status,
			"priority":       priority,
			"decision":       decisionMetadata(decision),
		},
	})
	if err != nil {
		return err
	}

	tasks, err := p.createFollowUpTasks(ctx, workspaceID, leadID, decision.Actions, now)
	if err != nil {
		return err
	}
	if err := p.applySideActions(ctx, lc, decision, status); err != nil {
		return err
	}

	if err := p.route(ctx, log, workspaceID, leadID, decision, status, priority, tasks, now); err != nil {
		return err
	}

	p.publisher.Publish(ctx, events.LeadQualified(workspaceID, leadID, score, string(result.Recommendation)))
	return nil
}

// resolveStatus prefers the orchestrator's status and falls back to the
// recommendation when it names no known status.
func resolveStatus(decision agents.Decision, rec domain.Recommendation) domain.LeadStatus {
	if decision.NextStatus.IsKnown() {
		return decision.NextStatus
	}
	status, _ := domain.StatusForRecommendation(rec)
	return status
}

func (p *Processor) createFollowUpTasks(ctx context.Context, workspaceID, leadID uuid.UUID, actions []agents.Action, now time.Time) ([]repository.FollowUpTask, error) {
	var tasks []repository.FollowUpTask
	for _, action := range actions {
		if action.Type != domain.ActionScheduleFollowUp {
			continue
		}
		params := repository.CreateFollowUpTaskParams{
			WorkspaceID: workspaceID,
			LeadID:      leadID,
			Metadata:    action.Payload,
		}
		if action.Description != "" {
			notes := action.Description
			params.Notes = &notes
		}
		if action.DueWithinMinutes != nil && *action.DueWithinMinutes > 0 {
			due := now.Add(time.Duration(*action.DueWithinMinutes) * time.Minute)
			params.DueAt = &due
		}
		task, err := p.stores.FollowUps.CreateFollowUpTask(ctx, params)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// applySideActions handles actions that do not change routing.
func (p *Processor) applySideActions(ctx context.Context, lc repository.LeadContext, decision agents.Decision, status domain.LeadStatus) error {
	lead := lc.Lead
	for _, action := range decision.Actions {
		switch action.Type {
		case domain.ActionSyncCRM:
			p.crm.Sync(ctx, contactFor(lc, status))
		case domain.ActionHumanReview:
			if err := p.recordAction(ctx, lead, repository.EventTypeHumanReview, repository.EventTitleHumanReview, action); err != nil {
				return err
			}
		case domain.ActionNotifySlack:
			if err := p.recordAction(ctx, lead, repository.EventTypeSlackNotice, repository.EventTitleSlackNotice, action); err != nil {
				return err
			}
		case domain.ActionScheduleFollowUp, domain.ActionLaunchSequence:
		default:
			p.log.Debug("ignoring orchestrator action", "type", action.Type, "leadId", lead.ID)
		}
	}
	return nil
}

func (p *Processor) recordAction(ctx context.Context, lead repository.Lead, eventType, title string, action agents.Action) error {
	_, err := p.stores.Timeline.CreateTimelineEvent(ctx, repository.CreateTimelineEventParams{
		WorkspaceID: lead.WorkspaceID,
		LeadID:      lead.ID,
		ActorType:   repository.ActorTypeAgent,
		ActorName:   repository.ActorNameOrchestrator,
		EventType:   eventType,
		Title:       title,
		Summary:     repository.TruncateSummary(action.Description, repository.TimelineSummaryMaxLen),
		Metadata:    map[string]any{"payload": action.Payload},
	})
	return err
}

func (p *Processor) route(
	ctx context.Context,
	log *logger.Logger,
	workspaceID, leadID uuid.UUID,
	decision agents.Decision,
	status domain.LeadStatus,
	priority domain.LeadPriority,
	tasks []repository.FollowUpTask,
	now time.Time,
) error {
	switch decision.Route() {
	case domain.RouteOutreach:
		return p.queue.EnqueueDispatch(ctx, scheduler.DispatchPayload{
			WorkspaceID: workspaceID.String(),
			LeadID:      leadID.String(),
			Priority:    string(priority),
			Status:      string(status),
			SequenceID:  sequenceFromActions(log, decision.Actions),
		}, 0)

	case domain.RouteFollowUp:
		for _, task := range tasks {
			err := p.queue.EnqueueFollowUp(ctx, scheduler.FollowUpPayload{
				WorkspaceID: workspaceID.String(),
				LeadID:      leadID.String(),
				TaskID:      task.ID.String(),
			}, scheduler.DelayUntil(task.DueAt, now))
			if err != nil {
				return err
			}
		}
		return nil

	case domain.RouteRequalify:
		return p.queue.EnqueueQualification(ctx, scheduler.QualificationPayload{
			WorkspaceID: workspaceID.String(),
			LeadID:      leadID.String(),
			Reason:      scheduler.ReasonRequalification,
		}, p.requalifyDelay)

	default:
		log.Warn("unrecognised routing decision", "route", decision.RouteToQueue)
		_, err := p.stores.Timeline.CreateTimelineEvent(ctx, repository.CreateTimelineEventParams{
			WorkspaceID: workspaceID,
			LeadID:      leadID,
			ActorType:   repository.ActorTypeSystem,
			ActorName:   repository.ActorNamePipeline,
			EventType:   repository.EventTypeRoutingUnknown,
			Title:       repository.EventTitleRoutingUnknown,
			Summary:     repository.TruncateSummary("No queue matches route "+decision.RouteToQueue, repository.TimelineSummaryMaxLen),
			Metadata:    map[string]any{"route": decision.RouteToQueue},
		})
		return err
	}
}

// sequenceFromActions returns the sequence named by the first launch_sequence
// action. Ids that are not UUIDs are dropped so dispatch uses the default.
func sequenceFromActions(log *logger.Logger, actions []agents.Action) *string {
	for _, action := range actions {
		if action.Type != domain.ActionLaunchSequence {
			continue
		}
		raw := action.PayloadString("sequenceId")
		if raw == "" {
			return nil
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			log.Warn("ignoring invalid sequence id from orchestrator", "sequenceId", raw)
			return nil
		}
		s := id.String()
		return &s
	}
	return nil
}

func contactFor(lc repository.LeadContext, status domain.LeadStatus) crm.Contact {
	l := lc.Lead
	c := crm.Contact{
		Email:          l.Email,
		FirstName:      l.FirstName,
		LastName:       l.LastName,
		LifecycleStage: lifecycleStage(status),
	}
	if l.Phone != nil {
		c.Phone = *l.Phone
	}
	if l.Title != nil {
		c.Title = *l.Title
	}
	if lc.Company != nil {
		c.Company = lc.Company.Name
	}
	return c
}

// lifecycleStage maps pipeline status onto HubSpot's default lifecycle stages.
func lifecycleStage(status domain.LeadStatus) string {
	switch status {
	case domain.LeadStatusQualified:
		return "salesqualifiedlead"
	case domain.LeadStatusOpportunity, domain.LeadStatusInProgress:
		return "opportunity"
	case domain.LeadStatusClosedWon:
		return "customer"
	case domain.LeadStatusNurture:
		return "marketingqualifiedlead"
	default:
		return "lead"
	}
}

func decisionMetadata(d agents.Decision) map[string]any {
	actions := make([]string, 0, len(d.Actions))
	for _, a := range d.Actions {
		actions = append(actions, string(a.Type))
	}
	return map[string]any{
		"assignedAgent":         d.AssignedAgent,
		"routeToQueue":          d.RouteToQueue,
		"priority":              d.Priority,
		"confidence":            d.Confidence,
		"nextStatus":            d.NextStatus,
		"actions":               actions,
		"specialConsiderations": d.SpecialConsiderations,
	}
}

func parseIDs(workspace, lead string) (uuid.UUID, uuid.UUID, error) {
	workspaceID, err := uuid.Parse(workspace)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.BadRequest("invalid workspace id")
	}
	leadID, err := uuid.Parse(lead)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.BadRequest("invalid lead id")
	}
	return workspaceID, leadID, nil
}
