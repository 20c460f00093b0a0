package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	"revenue_automation_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// completedRetention keeps finished tasks inspectable for a while; the
// RetentionJanitor trims the completed set down to a fixed count.
const completedRetention = 24 * time.Hour

// ErrRegistryClosed is returned by enqueues after Close.
var ErrRegistryClosed = errors.New("queue registry closed")

// enqueuer is the part of *asynq.Client the registry uses.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Queue is a handle to one named durable queue with its default job options.
type Queue struct {
	name     string
	client   enqueuer
	defaults []asynq.Option
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

// Enqueue submits task after delay. A non-positive delay runs it as soon as a
// worker is free. Broker errors are returned unchanged.
func (q *Queue) Enqueue(ctx context.Context, task *asynq.Task, delay time.Duration, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if task.Type() != q.name {
		return nil, fmt.Errorf("task %q cannot be enqueued on queue %q", task.Type(), q.name)
	}
	all := make([]asynq.Option, 0, len(q.defaults)+len(opts)+1)
	all = append(all, q.defaults...)
	if delay > 0 {
		all = append(all, asynq.ProcessIn(delay))
	}
	all = append(all, opts...)
	return q.client.EnqueueContext(ctx, task, all...)
}

// Registry owns the broker connection and one lazily created handle per
// pipeline queue. It is built once at process start and closed on shutdown.
type Registry struct {
	client   enqueuer
	maxRetry int
	timeout  time.Duration

	mu     sync.Mutex
	queues map[string]*Queue
	closed bool
}

func NewRegistry(cfg config.SchedulerConfig) (*Registry, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return newRegistry(asynq.NewClient(opt), cfg.GetJobMaxRetry(), cfg.GetJobTimeout()), nil
}

func newRegistry(client enqueuer, maxRetry int, timeout time.Duration) *Registry {
	return &Registry{
		client:   client,
		maxRetry: maxRetry,
		timeout:  timeout,
		queues:   make(map[string]*Queue, len(Queues)),
	}
}

// Queue returns the handle for name, creating it on first use.
func (r *Registry) Queue(name string) (*Queue, error) {
	if !knownQueue(name) {
		return nil, fmt.Errorf("unknown queue %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	if q, ok := r.queues[name]; ok {
		return q, nil
	}

	defaults := []asynq.Option{asynq.Queue(name), asynq.Retention(completedRetention)}
	if r.maxRetry >= 0 {
		defaults = append(defaults, asynq.MaxRetry(r.maxRetry))
	}
	if r.timeout > 0 {
		defaults = append(defaults, asynq.Timeout(r.timeout))
	}

	q := &Queue{name: name, client: r.client, defaults: defaults}
	r.queues[name] = q
	return q, nil
}

// Close releases the broker connection. Later enqueues fail with
// ErrRegistryClosed.
func (r *Registry) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.queues = map[string]*Queue{}
	return r.client.Close()
}

func (r *Registry) enqueue(ctx context.Context, queue string, task *asynq.Task, delay time.Duration, opts ...asynq.Option) error {
	q, err := r.Queue(queue)
	if err != nil {
		return err
	}
	_, err = q.Enqueue(ctx, task, delay, opts...)
	return err
}

// IntakeScheduler enqueues lead intake.
type IntakeScheduler interface {
	EnqueueIntake(ctx context.Context, payload IntakePayload) error
}

// QualificationScheduler enqueues qualification passes.
type QualificationScheduler interface {
	EnqueueQualification(ctx context.Context, payload QualificationPayload, delay time.Duration) error
}

// DispatchScheduler enqueues outreach dispatch.
type DispatchScheduler interface {
	EnqueueDispatch(ctx context.Context, payload DispatchPayload, delay time.Duration) error
}

// FollowUpScheduler enqueues follow-up execution.
type FollowUpScheduler interface {
	EnqueueFollowUp(ctx context.Context, payload FollowUpPayload, delay time.Duration) error
}

// AnalyticsScheduler enqueues analytics refreshes. taskID deduplicates.
type AnalyticsScheduler interface {
	EnqueueAnalytics(ctx context.Context, payload AnalyticsPayload, taskID string) error
}

var (
	_ IntakeScheduler        = (*Registry)(nil)
	_ QualificationScheduler = (*Registry)(nil)
	_ DispatchScheduler      = (*Registry)(nil)
	_ FollowUpScheduler      = (*Registry)(nil)
	_ AnalyticsScheduler     = (*Registry)(nil)
)

func (r *Registry) EnqueueIntake(ctx context.Context, payload IntakePayload) error {
	task, err := NewIntakeTask(payload)
	if err != nil {
		return err
	}
	return r.enqueue(ctx, QueueIntake, task, 0)
}

func (r *Registry) EnqueueQualification(ctx context.Context, payload QualificationPayload, delay time.Duration) error {
	task, err := NewQualificationTask(payload)
	if err != nil {
		return err
	}
	return r.enqueue(ctx, QueueQualification, task, delay)
}

func (r *Registry) EnqueueDispatch(ctx context.Context, payload DispatchPayload, delay time.Duration) error {
	task, err := NewDispatchTask(payload)
	if err != nil {
		return err
	}
	return r.enqueue(ctx, QueueOutreach, task, delay)
}

func (r *Registry) EnqueueFollowUp(ctx context.Context, payload FollowUpPayload, delay time.Duration) error {
	task, err := NewFollowUpTask(payload)
	if err != nil {
		return err
	}
	return r.enqueue(ctx, QueueFollowUp, task, delay)
}

// EnqueueAnalytics enqueues a refresh. A task with the same id still held by
// the broker is treated as already scheduled.
func (r *Registry) EnqueueAnalytics(ctx context.Context, payload AnalyticsPayload, taskID string) error {
	task, err := NewAnalyticsTask(payload)
	if err != nil {
		return err
	}
	var opts []asynq.Option
	if taskID != "" {
		opts = append(opts, asynq.TaskID(taskID))
	}
	err = r.enqueue(ctx, QueueAnalytics, task, 0, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
