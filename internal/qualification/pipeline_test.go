package qualification_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revenue_automation_backend/internal/agents"
	"revenue_automation_backend/internal/crm"
	"revenue_automation_backend/internal/delivery"
	"revenue_automation_backend/internal/events"
	"revenue_automation_backend/internal/intake"
	"revenue_automation_backend/internal/leads/domain"
	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/internal/outreach"
	"revenue_automation_backend/internal/qualification"
	"revenue_automation_backend/internal/scheduler"
	"revenue_automation_backend/platform/apperr"
	"revenue_automation_backend/platform/logger"
)

// memStore is a single-workspace, in-memory stand-in for the repository.
type memStore struct {
	mu          sync.Mutex
	leads       map[uuid.UUID]repository.Lead
	snapshots   []repository.SaveQualificationParams
	timeline    []string
	sequences   []repository.Sequence
	enrollments map[uuid.UUID]repository.Enrollment
	completed   map[uuid.UUID][]repository.CompletedStep
}

func newMemStore(seqs ...repository.Sequence) *memStore {
	return &memStore{
		leads:       map[uuid.UUID]repository.Lead{},
		sequences:   seqs,
		enrollments: map[uuid.UUID]repository.Enrollment{},
		completed:   map[uuid.UUID][]repository.CompletedStep{},
	}
}

func (m *memStore) FindCompanyByDomain(_ context.Context, d string) (repository.Company, error) {
	return repository.Company{}, apperr.NotFoundf("company with domain %s not found", d)
}

func (m *memStore) CreateCompany(_ context.Context, p repository.CreateCompanyParams) (repository.Company, error) {
	return repository.Company{ID: uuid.New(), WorkspaceID: p.WorkspaceID, Name: p.Name, Domain: p.Domain}, nil
}

func (m *memStore) UpdateCompanyName(_ context.Context, id uuid.UUID, name string) (repository.Company, error) {
	return repository.Company{ID: id, Name: name}, nil
}

func (m *memStore) UpsertLeadByEmail(_ context.Context, p repository.UpsertLeadParams) (repository.Lead, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.leads {
		if l.Email == p.Email {
			l.Status, l.Priority = domain.LeadStatusNew, p.Priority
			m.leads[id] = l
			return l, false, nil
		}
	}
	l := repository.Lead{
		ID: uuid.New(), WorkspaceID: p.WorkspaceID, FirstName: p.FirstName, LastName: p.LastName,
		Email: p.Email, Source: p.Source, Status: domain.LeadStatusNew, Priority: p.Priority,
	}
	m.leads[l.ID] = l
	return l, true, nil
}

func (m *memStore) GetLead(_ context.Context, workspaceID, leadID uuid.UUID) (repository.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[leadID]
	if !ok || l.WorkspaceID != workspaceID {
		return repository.Lead{}, apperr.NotFoundf("lead %s not found", leadID)
	}
	return l, nil
}

func (m *memStore) TouchLastContact(context.Context, uuid.UUID, time.Time) error { return nil }

func (m *memStore) GetLeadContext(ctx context.Context, workspaceID, leadID uuid.UUID) (repository.LeadContext, error) {
	l, err := m.GetLead(ctx, workspaceID, leadID)
	if err != nil {
		return repository.LeadContext{}, err
	}
	return repository.LeadContext{Lead: l}, nil
}

func (m *memStore) SaveQualification(_ context.Context, p repository.SaveQualificationParams) (repository.QualificationSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, p)
	l := m.leads[p.LeadID]
	l.Status, l.Priority, l.Score = p.Status, p.Priority, p.Snapshot.Score
	m.leads[p.LeadID] = l
	return p.Snapshot, nil
}

func (m *memStore) CreateFollowUpTask(_ context.Context, p repository.CreateFollowUpTaskParams) (repository.FollowUpTask, error) {
	return repository.FollowUpTask{ID: uuid.New(), WorkspaceID: p.WorkspaceID, LeadID: p.LeadID, Status: domain.TaskStatusPending}, nil
}

func (m *memStore) GetFollowUpTask(context.Context, uuid.UUID, uuid.UUID) (repository.FollowUpTask, error) {
	return repository.FollowUpTask{}, apperr.NotFound("follow-up task not found")
}

func (m *memStore) CompleteFollowUpTask(context.Context, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}

func (m *memStore) CreateTimelineEvent(_ context.Context, p repository.CreateTimelineEventParams) (repository.TimelineEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeline = append(m.timeline, p.EventType)
	return repository.TimelineEvent{}, nil
}

func (m *memStore) ResolveSequence(_ context.Context, _ uuid.UUID, id *uuid.UUID) (repository.Sequence, error) {
	for _, s := range m.sequences {
		if s.Status == domain.SequenceActive && (id == nil || *id == s.ID) {
			return s, nil
		}
	}
	return repository.Sequence{}, apperr.NotFound("no active outreach sequence")
}

func (m *memStore) FindOrCreateEnrollment(_ context.Context, leadID, sequenceID uuid.UUID) (repository.Enrollment, error) {
	for _, e := range m.enrollments {
		if e.LeadID == leadID && e.SequenceID == sequenceID {
			return e, nil
		}
	}
	e := repository.Enrollment{ID: uuid.New(), LeadID: leadID, SequenceID: sequenceID, Status: domain.EnrollmentInProgress}
	m.enrollments[e.ID] = e
	return e, nil
}

func (m *memStore) ListCompletedSteps(_ context.Context, enrollmentID uuid.UUID) ([]repository.CompletedStep, error) {
	return append([]repository.CompletedStep(nil), m.completed[enrollmentID]...), nil
}

func (m *memStore) AppendStepCompleted(_ context.Context, enrollmentID, stepID uuid.UUID, _ map[string]any) (bool, error) {
	for _, c := range m.completed[enrollmentID] {
		if c.StepID == stepID {
			return false, nil
		}
	}
	m.completed[enrollmentID] = append(m.completed[enrollmentID], repository.CompletedStep{StepID: stepID, CompletedAt: time.Now().UTC()})
	return true, nil
}

func (m *memStore) CompleteEnrollment(_ context.Context, enrollmentID uuid.UUID, at time.Time) (bool, error) {
	e := m.enrollments[enrollmentID]
	if e.Status == domain.EnrollmentCompleted {
		return false, nil
	}
	e.Status, e.CompletedAt = domain.EnrollmentCompleted, &at
	m.enrollments[enrollmentID] = e
	return true, nil
}

// memQueue records jobs instead of sending them to Redis.
type memQueue struct {
	qualifications []scheduler.QualificationPayload
	dispatches     []scheduler.DispatchPayload
	dispatchDelays []time.Duration
}

func (q *memQueue) EnqueueQualification(_ context.Context, p scheduler.QualificationPayload, _ time.Duration) error {
	q.qualifications = append(q.qualifications, p)
	return nil
}

func (q *memQueue) EnqueueDispatch(_ context.Context, p scheduler.DispatchPayload, d time.Duration) error {
	q.dispatches = append(q.dispatches, p)
	q.dispatchDelays = append(q.dispatchDelays, d)
	return nil
}

func (q *memQueue) EnqueueFollowUp(context.Context, scheduler.FollowUpPayload, time.Duration) error {
	return nil
}

type noEnrichment struct{}

func (noEnrichment) EnrichCompany(context.Context, uuid.UUID, string) {}

type staticQualifier struct{ score float64 }

func (s staticQualifier) Qualify(context.Context, repository.LeadContext) (agents.QualificationResult, error) {
	score := s.score
	return agents.QualificationResult{RawScore: &score, Recommendation: domain.RecommendationFastTrack}, nil
}

type staticOrchestrator struct{ decision agents.Decision }

func (s staticOrchestrator) Decide(context.Context, repository.LeadContext) (agents.Decision, error) {
	return s.decision, nil
}

type stepComposer struct{ steps []int }

func (c *stepComposer) ComposeOutreach(_ context.Context, _ repository.LeadContext, step repository.SequenceStep) (agents.Email, error) {
	c.steps = append(c.steps, step.Order)
	return agents.Email{Subject: "Hello", HTMLBody: "<p>Hello</p>", TextBody: "Hello"}, nil
}

type outbox struct{ sent []delivery.Delivery }

func (o *outbox) Deliver(_ context.Context, d delivery.Delivery) (time.Time, error) {
	o.sent = append(o.sent, d)
	return time.Now().UTC(), nil
}

type eventLog struct {
	mu    sync.Mutex
	types []string
}

func (e *eventLog) Publish(_ context.Context, ev events.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.types = append(e.types, ev.Type)
}

func TestWebsiteLeadFlowsFromIntakeToFirstOutreachStep(t *testing.T) {
	ctx := context.Background()
	log := logger.New("test")
	ws := uuid.New()

	seq := repository.Sequence{ID: uuid.New(), WorkspaceID: ws, Name: "Default", Status: domain.SequenceActive}
	for i, wait := range []int{0, 48} {
		seq.Steps = append(seq.Steps, repository.SequenceStep{
			ID: uuid.New(), SequenceID: seq.ID, Order: i + 1, Channel: domain.ChannelEmail, WaitHours: wait,
		})
	}

	store := newMemStore(seq)
	queue := &memQueue{}
	published := &eventLog{}
	composer := &stepComposer{}
	sent := &outbox{}

	intakeProc := intake.NewProcessor(store, store, noEnrichment{}, queue, published, log, time.Second)
	qualifyProc := qualification.NewProcessor(
		qualification.Stores{Leads: store, Snapshots: store, FollowUps: store, Timeline: store},
		staticQualifier{score: 85},
		staticOrchestrator{decision: agents.Decision{
			RouteToQueue: string(domain.RouteOutreach),
			NextStatus:   domain.LeadStatusQualified,
			Confidence:   0.9,
		}},
		queue, crm.NewSyncer(nil, log), published, log, 0,
	)
	dispatchProc := outreach.NewProcessor(
		outreach.Stores{Leads: store, Sequences: store, Timeline: store},
		composer, sent, queue, published, log,
	)

	leadID, err := intakeProc.Process(ctx, scheduler.IntakePayload{
		WorkspaceID: ws.String(),
		Source:      "WEBSITE",
		Contact:     scheduler.IntakeContact{FirstName: "Ana", LastName: "Silva", Email: "a@x.com"},
	})
	require.NoError(t, err)
	intakeProc.Drain()
	require.Len(t, queue.qualifications, 1)
	assert.Equal(t, leadID.String(), queue.qualifications[0].LeadID)

	require.NoError(t, qualifyProc.Process(ctx, queue.qualifications[0]))

	lead := store.leads[leadID]
	assert.Equal(t, domain.PriorityCritical, lead.Priority)
	assert.Equal(t, domain.LeadStatusQualified, lead.Status)
	assert.Equal(t, 85, lead.Score)
	require.Len(t, queue.dispatches, 1)
	assert.Nil(t, queue.dispatches[0].SequenceID)
	assert.Equal(t, time.Duration(0), queue.dispatchDelays[0])

	require.NoError(t, dispatchProc.Process(ctx, queue.dispatches[0]))

	assert.Equal(t, []int{1}, composer.steps)
	require.Len(t, sent.sent, 1)
	assert.Equal(t, "a@x.com", sent.sent[0].Lead.Email)
	require.Len(t, queue.dispatches, 2)
	assert.Equal(t, 48*time.Hour, queue.dispatchDelays[1])
	require.NotNil(t, queue.dispatches[1].SequenceID)
	assert.Equal(t, seq.ID.String(), *queue.dispatches[1].SequenceID)

	assert.Equal(t, []string{events.TypeLeadCreated, events.TypeLeadQualified, events.TypeOutreachSent}, published.types)
}
