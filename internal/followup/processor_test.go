package followup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revenue_automation_backend/internal/agents"
	"revenue_automation_backend/internal/delivery"
	"revenue_automation_backend/internal/events"
	"revenue_automation_backend/internal/leads/domain"
	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/internal/scheduler"
	"revenue_automation_backend/platform/apperr"
	"revenue_automation_backend/platform/logger"
)

type fakeContexts struct{ lc repository.LeadContext }

func (f *fakeContexts) GetLeadContext(context.Context, uuid.UUID, uuid.UUID) (repository.LeadContext, error) {
	return f.lc, nil
}

type fakeTasks struct {
	tasks map[uuid.UUID]*repository.FollowUpTask
}

func (f *fakeTasks) CreateFollowUpTask(context.Context, repository.CreateFollowUpTaskParams) (repository.FollowUpTask, error) {
	return repository.FollowUpTask{}, errors.New("not used")
}

func (f *fakeTasks) GetFollowUpTask(_ context.Context, _ uuid.UUID, id uuid.UUID) (repository.FollowUpTask, error) {
	t, ok := f.tasks[id]
	if !ok {
		return repository.FollowUpTask{}, apperr.NotFoundf("follow-up task %s not found", id)
	}
	return *t, nil
}

func (f *fakeTasks) CompleteFollowUpTask(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	t := f.tasks[id]
	if t.Status == domain.TaskStatusCompleted {
		return false, nil
	}
	t.Status = domain.TaskStatusCompleted
	t.CompletedAt = &at
	return true, nil
}

type fakeTimeline struct{ entries []repository.CreateTimelineEventParams }

func (f *fakeTimeline) CreateTimelineEvent(_ context.Context, p repository.CreateTimelineEventParams) (repository.TimelineEvent, error) {
	f.entries = append(f.entries, p)
	return repository.TimelineEvent{}, nil
}

type fakeComposer struct{ calls int }

func (f *fakeComposer) ComposeFollowUp(context.Context, repository.LeadContext, repository.FollowUpTask) (agents.Email, error) {
	f.calls++
	return agents.Email{Subject: "Following up", HTMLBody: "<p>hi</p>", TextBody: "hi"}, nil
}

type fakeDeliverer struct {
	sent []delivery.Delivery
	err  error
}

func (f *fakeDeliverer) Deliver(_ context.Context, d delivery.Delivery) (time.Time, error) {
	if f.err != nil {
		return time.Time{}, f.err
	}
	f.sent = append(f.sent, d)
	return time.Now(), nil
}

type fakePublisher struct{ events []events.Event }

func (f *fakePublisher) Publish(_ context.Context, e events.Event) { f.events = append(f.events, e) }

type harness struct {
	payload   scheduler.FollowUpPayload
	contexts  *fakeContexts
	tasks     *fakeTasks
	timeline  *fakeTimeline
	composer  *fakeComposer
	deliverer *fakeDeliverer
	publisher *fakePublisher
	proc      *Processor
}

func newHarness() *harness {
	ws, lead, taskID := uuid.New(), uuid.New(), uuid.New()
	notes := "Send the ROI calculator"
	h := &harness{
		payload: scheduler.FollowUpPayload{WorkspaceID: ws.String(), LeadID: lead.String(), TaskID: taskID.String()},
		contexts: &fakeContexts{lc: repository.LeadContext{Lead: repository.Lead{
			ID: lead, WorkspaceID: ws, Email: "ada@acme.io", Status: domain.LeadStatusQualified,
		}}},
		tasks: &fakeTasks{tasks: map[uuid.UUID]*repository.FollowUpTask{
			taskID: {ID: taskID, WorkspaceID: ws, LeadID: lead, Status: domain.TaskStatusPending, Notes: &notes},
		}},
		timeline:  &fakeTimeline{},
		composer:  &fakeComposer{},
		deliverer: &fakeDeliverer{},
		publisher: &fakePublisher{},
	}
	h.proc = NewProcessor(
		Stores{Leads: h.contexts, FollowUps: h.tasks, Timeline: h.timeline},
		h.composer, h.deliverer, h.publisher, logger.New("test"),
	)
	return h
}

func TestProcessSendsAndCompletesTask(t *testing.T) {
	h := newHarness()

	require.NoError(t, h.proc.Process(context.Background(), h.payload))

	require.Len(t, h.deliverer.sent, 1)
	sent := h.deliverer.sent[0]
	assert.Equal(t, []string{emailCategory}, sent.Categories)
	assert.Equal(t, h.payload.TaskID, sent.CustomArgs["taskId"])
	assert.Equal(t, h.payload.LeadID, sent.CustomArgs["leadId"])

	task := h.tasks.tasks[uuid.MustParse(h.payload.TaskID)]
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)

	require.Len(t, h.timeline.entries, 1)
	entry := h.timeline.entries[0]
	assert.Equal(t, repository.EventTypeFollowUpCompleted, entry.EventType)
	require.NotNil(t, entry.Summary)
	assert.Equal(t, "Send the ROI calculator", *entry.Summary)

	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, events.TypeFollowUpCompleted, h.publisher.events[0].Type)
}

func TestRedeliveryIsNoop(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.proc.Process(context.Background(), h.payload))
	require.NoError(t, h.proc.Process(context.Background(), h.payload))

	assert.Equal(t, 1, h.composer.calls)
	assert.Len(t, h.deliverer.sent, 1)
	assert.Len(t, h.timeline.entries, 1)
	assert.Len(t, h.publisher.events, 1)
}

func TestMissingTaskIsFatal(t *testing.T) {
	h := newHarness()
	h.payload.TaskID = uuid.NewString()

	err := h.proc.Process(context.Background(), h.payload)
	require.Error(t, err)
	assert.False(t, apperr.Retryable(err))
}

func TestTaskOfAnotherLeadIsRejected(t *testing.T) {
	h := newHarness()
	h.payload.LeadID = uuid.NewString()

	err := h.proc.Process(context.Background(), h.payload)
	require.Error(t, err)
	assert.False(t, apperr.Retryable(err))
	assert.Empty(t, h.deliverer.sent)
}

func TestClosedLeadSkipsFollowUp(t *testing.T) {
	h := newHarness()
	h.contexts.lc.Lead.Status = domain.LeadStatusClosedLost

	require.NoError(t, h.proc.Process(context.Background(), h.payload))

	assert.Zero(t, h.composer.calls)
	assert.Empty(t, h.deliverer.sent)
	require.Len(t, h.timeline.entries, 1)
	assert.Equal(t, repository.EventTypeFollowUpSkipped, h.timeline.entries[0].EventType)
	assert.Empty(t, h.publisher.events)
}

func TestSendFailureKeepsTaskPending(t *testing.T) {
	h := newHarness()
	h.deliverer.err = errors.New("provider 503")

	err := h.proc.Process(context.Background(), h.payload)
	require.Error(t, err)
	assert.True(t, apperr.Retryable(err))
	assert.Equal(t, domain.TaskStatusPending, h.tasks.tasks[uuid.MustParse(h.payload.TaskID)].Status)
	assert.Empty(t, h.timeline.entries)
}
