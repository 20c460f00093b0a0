// Package service holds the inbound API use cases: they validate requests and
// hand work to the pipeline queues.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"revenue_automation_backend/internal/leads/domain"
	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/internal/leads/transport"
	"revenue_automation_backend/internal/scheduler"
	"revenue_automation_backend/platform/apperr"
)

const timelineLimit = 100

// Queue is the subset of the registry the API enqueues on.
type Queue interface {
	scheduler.IntakeScheduler
	scheduler.FollowUpScheduler
}

type Service struct {
	leads     repository.LeadContextReader
	followUps repository.FollowUpStore
	timeline  repository.TimelineReader
	queue     Queue
	now       func() time.Time
}

func New(leads repository.LeadContextReader, followUps repository.FollowUpStore, timeline repository.TimelineReader, queue Queue) *Service {
	return &Service{
		leads:     leads,
		followUps: followUps,
		timeline:  timeline,
		queue:     queue,
		now:       time.Now,
	}
}

// QueueLead hands a new contact to the intake queue. Nothing is stored until
// the intake job runs.
func (s *Service) QueueLead(ctx context.Context, req transport.CreateLeadRequest) error {
	source := domain.SourceManual
	if req.Source != "" {
		source = domain.LeadSource(strings.ToUpper(strings.TrimSpace(req.Source)))
		if !source.IsKnown() {
			return apperr.Validation("unknown lead source "+req.Source).
				WithDetails(map[string]any{"field": "source", "allowed": domain.LeadSources})
		}
	}

	contact := scheduler.IntakeContact{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Title:     req.Title,
		Metadata:  req.Metadata,
	}
	if req.Company != nil {
		contact.Company = &scheduler.IntakeCompany{Name: req.Company.Name, Domain: req.Company.Domain}
	}

	return s.queue.EnqueueIntake(ctx, scheduler.IntakePayload{
		WorkspaceID: req.WorkspaceID,
		Source:      string(source),
		Contact:     contact,
	})
}

// CreateFollowUp stores a task and schedules its execution at dueAt. A due
// time in the past runs immediately.
func (s *Service) CreateFollowUp(ctx context.Context, leadID uuid.UUID, req transport.CreateFollowUpRequest) (transport.FollowUpTaskResponse, error) {
	workspaceID, err := uuid.Parse(req.WorkspaceID)
	if err != nil {
		return transport.FollowUpTaskResponse{}, apperr.Validation("invalid workspace id")
	}
	if _, err := s.leads.GetLeadContext(ctx, workspaceID, leadID); err != nil {
		return transport.FollowUpTaskResponse{}, err
	}

	notes := strings.TrimSpace(req.Notes)
	var dueAt *time.Time
	if req.DueAt != nil {
		due := req.DueAt.UTC()
		dueAt = &due
	}
	task, err := s.followUps.CreateFollowUpTask(ctx, repository.CreateFollowUpTaskParams{
		WorkspaceID: workspaceID,
		LeadID:      leadID,
		DueAt:       dueAt,
		Notes:       &notes,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return transport.FollowUpTaskResponse{}, err
	}

	if err := s.queue.EnqueueFollowUp(ctx, scheduler.FollowUpPayload{
		WorkspaceID: workspaceID.String(),
		LeadID:      leadID.String(),
		TaskID:      task.ID.String(),
	}, scheduler.DelayUntil(task.DueAt, s.now())); err != nil {
		return transport.FollowUpTaskResponse{}, err
	}
	return toFollowUpResponse(task), nil
}

func (s *Service) GetLead(ctx context.Context, workspaceID, leadID uuid.UUID) (transport.LeadResponse, error) {
	lc, err := s.leads.GetLeadContext(ctx, workspaceID, leadID)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(lc), nil
}

func (s *Service) Timeline(ctx context.Context, workspaceID, leadID uuid.UUID) (transport.TimelineResponse, error) {
	events, err := s.timeline.ListTimelineEvents(ctx, workspaceID, leadID, timelineLimit)
	if err != nil {
		return transport.TimelineResponse{}, err
	}
	items := make([]transport.TimelineEventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, transport.TimelineEventResponse{
			ID:        e.ID,
			ActorType: e.ActorType,
			ActorName: e.ActorName,
			EventType: e.EventType,
			Title:     e.Title,
			Summary:   e.Summary,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	return transport.TimelineResponse{Items: items}, nil
}

func toFollowUpResponse(t repository.FollowUpTask) transport.FollowUpTaskResponse {
	return transport.FollowUpTaskResponse{
		ID:          t.ID,
		WorkspaceID: t.WorkspaceID,
		LeadID:      t.LeadID,
		Status:      string(t.Status),
		DueAt:       t.DueAt,
		Notes:       t.Notes,
		Metadata:    t.Metadata,
		CreatedAt:   t.CreatedAt,
	}
}

func toLeadResponse(lc repository.LeadContext) transport.LeadResponse {
	l := lc.Lead
	resp := transport.LeadResponse{
		ID:              l.ID,
		WorkspaceID:     l.WorkspaceID,
		FirstName:       l.FirstName,
		LastName:        l.LastName,
		Email:           l.Email,
		Phone:           l.Phone,
		Title:           l.Title,
		Source:          string(l.Source),
		Status:          string(l.Status),
		Priority:        string(l.Priority),
		Score:           l.Score,
		LastContactAt:   l.LastContactAt,
		LastQualifiedAt: l.LastQualifiedAt,
		CreatedAt:       l.CreatedAt,
	}
	if c := lc.Company; c != nil {
		resp.Company = &transport.CompanyResponse{
			ID:        c.ID,
			Name:      c.Name,
			Domain:    c.Domain,
			Industry:  c.Industry,
			Employees: c.Employees,
		}
	}
	if q := lc.LatestQualification; q != nil {
		resp.LatestQualification = &transport.QualificationResponse{
			Framework:      q.Framework,
			Score:          q.Score,
			Recommendation: string(q.Recommendation),
			CreatedAt:      q.CreatedAt,
		}
	}
	return resp
}
