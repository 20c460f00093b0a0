package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"revenue_automation_backend/platform/config"
	"revenue_automation_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const (
	defaultRetentionInterval = 10 * time.Minute
	defaultKeepCompleted     = 50
	defaultKeepFailed        = 100
	// maxTrimBatch bounds the deletions per queue and set in one pass.
	maxTrimBatch = 500
)

// inspector is the view of the broker the janitor needs. Listings return
// the oldest n tasks of a set.
type inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	OldestCompleted(queue string, n int) ([]*asynq.TaskInfo, error)
	OldestArchived(queue string, n int) ([]*asynq.TaskInfo, error)
	DeleteTask(queue, id string) error
	Close() error
}

type asynqInspector struct {
	*asynq.Inspector
}

func (i asynqInspector) OldestCompleted(queue string, n int) ([]*asynq.TaskInfo, error) {
	return i.ListCompletedTasks(queue, asynq.PageSize(n), asynq.Page(1))
}

func (i asynqInspector) OldestArchived(queue string, n int) ([]*asynq.TaskInfo, error) {
	return i.ListArchivedTasks(queue, asynq.PageSize(n), asynq.Page(1))
}

// RetentionJanitor periodically trims each queue's completed and archived
// (failed) task sets to a fixed count, oldest first.
type RetentionJanitor struct {
	inspector     inspector
	log           *logger.Logger
	interval      time.Duration
	keepCompleted int
	keepFailed    int
}

func NewRetentionJanitor(cfg config.SchedulerConfig, log *logger.Logger) (*RetentionJanitor, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return newRetentionJanitor(asynqInspector{asynq.NewInspector(opt)}, log, cfg.GetRetentionInterval(), cfg.GetQueueKeepCompleted(), cfg.GetQueueKeepFailed()), nil
}

func newRetentionJanitor(insp inspector, log *logger.Logger, interval time.Duration, keepCompleted, keepFailed int) *RetentionJanitor {
	if interval <= 0 {
		interval = defaultRetentionInterval
	}
	if keepCompleted < 0 {
		keepCompleted = defaultKeepCompleted
	}
	if keepFailed < 0 {
		keepFailed = defaultKeepFailed
	}
	return &RetentionJanitor{
		inspector:     insp,
		log:           log,
		interval:      interval,
		keepCompleted: keepCompleted,
		keepFailed:    keepFailed,
	}
}

func (j *RetentionJanitor) Run(ctx context.Context) {
	if j == nil || j.inspector == nil {
		return
	}
	defer func() { _ = j.inspector.Close() }()

	j.cleanup()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *RetentionJanitor) cleanup() {
	for _, queue := range Queues {
		info, err := j.inspector.GetQueueInfo(queue)
		if errors.Is(err, asynq.ErrQueueNotFound) {
			continue
		}
		if err != nil {
			j.log.Warn("queue retention lookup failed", "queue", queue, "error", err)
			continue
		}

		completed := j.trim(queue, info.Completed, j.keepCompleted, j.inspector.OldestCompleted)
		failed := j.trim(queue, info.Archived, j.keepFailed, j.inspector.OldestArchived)
		if completed > 0 || failed > 0 {
			j.log.Info("queue retention trimmed tasks", "queue", queue, "completed", completed, "failed", failed)
		}
	}
}

type listFunc func(queue string, n int) ([]*asynq.TaskInfo, error)

// trim deletes the oldest tasks of one set so that at most keep remain.
func (j *RetentionJanitor) trim(queue string, size, keep int, list listFunc) int {
	excess := size - keep
	if excess <= 0 {
		return 0
	}
	if excess > maxTrimBatch {
		excess = maxTrimBatch
	}

	tasks, err := list(queue, excess)
	if err != nil {
		j.log.Warn("queue retention listing failed", "queue", queue, "error", err)
		return 0
	}

	deleted := 0
	for _, task := range tasks {
		if err := j.inspector.DeleteTask(queue, task.ID); err != nil {
			j.log.Warn("queue retention delete failed", "queue", queue, "task_id", task.ID, "error", err)
			continue
		}
		deleted++
	}
	return deleted
}
