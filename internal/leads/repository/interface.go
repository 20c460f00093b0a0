package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// CompanyStore resolves and enriches companies.
type CompanyStore interface {
	FindCompanyByDomain(ctx context.Context, domain string) (Company, error)
	CreateCompany(ctx context.Context, params CreateCompanyParams) (Company, error)
	UpdateCompanyName(ctx context.Context, id uuid.UUID, name string) (Company, error)
}

// EnrichmentStore persists third-party firmographics.
type EnrichmentStore interface {
	InsertCompanyEnrichment(ctx context.Context, companyID uuid.UUID, provider string, payload map[string]any) error
	ApplyCompanyEnrichment(ctx context.Context, companyID uuid.UUID, params ApplyEnrichmentParams) error
}

// LeadStore reads and writes lead rows.
type LeadStore interface {
	UpsertLeadByEmail(ctx context.Context, params UpsertLeadParams) (Lead, bool, error)
	GetLead(ctx context.Context, workspaceID, leadID uuid.UUID) (Lead, error)
	TouchLastContact(ctx context.Context, leadID uuid.UUID, at time.Time) error
}

// LeadContextReader assembles the context handed to AI collaborators.
type LeadContextReader interface {
	GetLeadContext(ctx context.Context, workspaceID, leadID uuid.UUID) (LeadContext, error)
}

// QualificationStore persists qualification passes.
type QualificationStore interface {
	SaveQualification(ctx context.Context, params SaveQualificationParams) (QualificationSnapshot, error)
}

// FollowUpStore manages follow-up tasks.
type FollowUpStore interface {
	CreateFollowUpTask(ctx context.Context, params CreateFollowUpTaskParams) (FollowUpTask, error)
	GetFollowUpTask(ctx context.Context, workspaceID, taskID uuid.UUID) (FollowUpTask, error)
	CompleteFollowUpTask(ctx context.Context, taskID uuid.UUID, completedAt time.Time) (bool, error)
}

// SequenceStore drives enrollment progress through a sequence.
type SequenceStore interface {
	ResolveSequence(ctx context.Context, workspaceID uuid.UUID, sequenceID *uuid.UUID) (Sequence, error)
	FindOrCreateEnrollment(ctx context.Context, leadID, sequenceID uuid.UUID) (Enrollment, error)
	ListCompletedSteps(ctx context.Context, enrollmentID uuid.UUID) ([]CompletedStep, error)
	AppendStepCompleted(ctx context.Context, enrollmentID, stepID uuid.UUID, payload map[string]any) (bool, error)
	CompleteEnrollment(ctx context.Context, enrollmentID uuid.UUID, completedAt time.Time) (bool, error)
}

// SequenceAuthoring creates and updates sequence templates.
type SequenceAuthoring interface {
	UpsertSequence(ctx context.Context, params UpsertSequenceParams) (Sequence, error)
}

// InteractionStore records touches with a lead.
type InteractionStore interface {
	CreateInteraction(ctx context.Context, params CreateInteractionParams) (Interaction, error)
	ListInteractionsInWindow(ctx context.Context, leadID uuid.UUID, from, to time.Time) ([]Interaction, error)
}

// TimelineWriter appends to the lead narrative.
type TimelineWriter interface {
	CreateTimelineEvent(ctx context.Context, params CreateTimelineEventParams) (TimelineEvent, error)
}

// TimelineReader lists the lead narrative.
type TimelineReader interface {
	ListTimelineEvents(ctx context.Context, workspaceID, leadID uuid.UUID, limit int) ([]TimelineEvent, error)
}

// AnalyticsStore reads leads for rollups and writes per-day metrics.
type AnalyticsStore interface {
	ListLeadsForAnalytics(ctx context.Context, workspaceID uuid.UUID) ([]Lead, error)
	UpsertLeadAnalytics(ctx context.Context, row LeadAnalytics) error
}

// WorkspaceReader enumerates tenants.
type WorkspaceReader interface {
	ListWorkspaceIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Compile-time check that Repository implements every store.
var (
	_ CompanyStore       = (*Repository)(nil)
	_ EnrichmentStore    = (*Repository)(nil)
	_ LeadStore          = (*Repository)(nil)
	_ LeadContextReader  = (*Repository)(nil)
	_ QualificationStore = (*Repository)(nil)
	_ FollowUpStore      = (*Repository)(nil)
	_ SequenceStore      = (*Repository)(nil)
	_ SequenceAuthoring  = (*Repository)(nil)
	_ InteractionStore   = (*Repository)(nil)
	_ TimelineWriter     = (*Repository)(nil)
	_ TimelineReader     = (*Repository)(nil)
	_ AnalyticsStore     = (*Repository)(nil)
	_ WorkspaceReader    = (*Repository)(nil)
)
