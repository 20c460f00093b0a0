package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enqueued struct {
	task *asynq.Task
	opts []asynq.Option
}

type fakeEnqueuer struct {
	mu     sync.Mutex
	calls  []enqueued
	err    error
	closed bool
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, enqueued{task: task, opts: opts})
	return &asynq.TaskInfo{ID: "t", Type: task.Type()}, nil
}

func (f *fakeEnqueuer) Close() error {
	f.closed = true
	return nil
}

func optionValue(opts []asynq.Option, kind asynq.OptionType) (interface{}, bool) {
	for _, o := range opts {
		if o.Type() == kind {
			return o.Value(), true
		}
	}
	return nil, false
}

func TestRegistryCachesQueueHandles(t *testing.T) {
	reg := newRegistry(&fakeEnqueuer{}, 5, time.Minute)

	first, err := reg.Queue(QueueOutreach)
	require.NoError(t, err)
	second, err := reg.Queue(QueueOutreach)
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = reg.Queue("unknown:queue")
	assert.Error(t, err)
}

func TestEnqueueAppliesDefaultsAndDelay(t *testing.T) {
	fake := &fakeEnqueuer{}
	reg := newRegistry(fake, 5, 2*time.Minute)

	err := reg.EnqueueQualification(context.Background(), QualificationPayload{
		WorkspaceID: "ws", LeadID: "lead", Reason: ReasonRequalification,
	}, 15*time.Minute)
	require.NoError(t, err)
	require.Len(t, fake.calls, 1)

	call := fake.calls[0]
	assert.Equal(t, QueueQualification, call.task.Type())

	queue, ok := optionValue(call.opts, asynq.QueueOpt)
	require.True(t, ok)
	assert.Equal(t, QueueQualification, queue)

	delay, ok := optionValue(call.opts, asynq.ProcessInOpt)
	require.True(t, ok)
	assert.Equal(t, 15*time.Minute, delay)

	retry, ok := optionValue(call.opts, asynq.MaxRetryOpt)
	require.True(t, ok)
	assert.Equal(t, 5, retry)

	_, ok = optionValue(call.opts, asynq.TimeoutOpt)
	assert.True(t, ok)
}

func TestEnqueueWithoutDelayRunsImmediately(t *testing.T) {
	fake := &fakeEnqueuer{}
	reg := newRegistry(fake, 5, 0)

	require.NoError(t, reg.EnqueueFollowUp(context.Background(), FollowUpPayload{TaskID: "x"}, -3*time.Hour))
	_, ok := optionValue(fake.calls[0].opts, asynq.ProcessInOpt)
	assert.False(t, ok, "negative delays are clamped to immediate")
}

func TestEnqueueFailuresPropagate(t *testing.T) {
	broker := errors.New("redis unavailable")
	reg := newRegistry(&fakeEnqueuer{err: broker}, 5, 0)

	err := reg.EnqueueDispatch(context.Background(), DispatchPayload{LeadID: "l"}, 0)
	assert.ErrorIs(t, err, broker)
}

func TestEnqueueAnalyticsIgnoresDuplicateTaskID(t *testing.T) {
	reg := newRegistry(&fakeEnqueuer{err: asynq.ErrTaskIDConflict}, 5, 0)
	assert.NoError(t, reg.EnqueueAnalytics(context.Background(), AnalyticsPayload{WorkspaceID: "ws"}, "analytics:ws:1"))
}

func TestRegistryCloseRejectsLaterEnqueues(t *testing.T) {
	fake := &fakeEnqueuer{}
	reg := newRegistry(fake, 5, 0)

	require.NoError(t, reg.Close())
	assert.True(t, fake.closed)
	assert.ErrorIs(t, reg.EnqueueIntake(context.Background(), IntakePayload{}), ErrRegistryClosed)
	assert.NoError(t, reg.Close())
}

func TestQueueRejectsForeignTaskType(t *testing.T) {
	reg := newRegistry(&fakeEnqueuer{}, 5, 0)
	q, err := reg.Queue(QueueIntake)
	require.NoError(t, err)

	task, err := NewFollowUpTask(FollowUpPayload{TaskID: "x"})
	require.NoError(t, err)
	_, err = q.Enqueue(context.Background(), task, 0)
	assert.Error(t, err)
}
