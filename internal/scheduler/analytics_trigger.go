package scheduler

import (
	"context"
	"fmt"
	"time"

	"revenue_automation_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// WorkspaceLister enumerates the tenants analytics runs for.
type WorkspaceLister interface {
	ListWorkspaceIDs(ctx context.Context) ([]uuid.UUID, error)
}

// AnalyticsTrigger enqueues one analytics refresh per workspace on a cron
// schedule.
type AnalyticsTrigger struct {
	spec       string
	workspaces WorkspaceLister
	queue      AnalyticsScheduler
	log        *logger.Logger
	now        func() time.Time
}

func NewAnalyticsTrigger(spec string, workspaces WorkspaceLister, queue AnalyticsScheduler, log *logger.Logger) *AnalyticsTrigger {
	if spec == "" {
		spec = "@hourly"
	}
	return &AnalyticsTrigger{
		spec:       spec,
		workspaces: workspaces,
		queue:      queue,
		log:        log,
		now:        time.Now,
	}
}

// Run schedules the trigger and blocks until ctx is cancelled.
func (t *AnalyticsTrigger) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(t.spec, func() { t.Trigger(ctx) }); err != nil {
		return fmt.Errorf("invalid analytics schedule %q: %w", t.spec, err)
	}
	c.Start()
	t.log.Info("analytics trigger scheduled", "spec", t.spec)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Trigger enqueues the refresh for every workspace. The window covers the UTC
// day of the last completed hour, so the midnight run closes out the previous
// day.
func (t *AnalyticsTrigger) Trigger(ctx context.Context) {
	ids, err := t.workspaces.ListWorkspaceIDs(ctx)
	if err != nil {
		t.log.Warn("analytics trigger could not list workspaces", "error", err)
		return
	}

	start, end := AnalyticsWindow(t.now())
	enqueued := 0
	for _, id := range ids {
		payload := AnalyticsPayload{WorkspaceID: id.String(), WindowStart: start, WindowEnd: end}
		taskID := fmt.Sprintf("analytics:%s:%s", id, end.Format("2006-01-02T15"))
		if err := t.queue.EnqueueAnalytics(ctx, payload, taskID); err != nil {
			t.log.Warn("analytics enqueue failed", "workspace_id", id.String(), "error", err)
			continue
		}
		enqueued++
	}
	t.log.Info("analytics refresh enqueued", "workspaces", enqueued)
}

// AnalyticsWindow returns the rollup window for a tick at now.
func AnalyticsWindow(now time.Time) (time.Time, time.Time) {
	end := now.UTC().Truncate(time.Hour)
	start := end.Add(-time.Nanosecond).Truncate(24 * time.Hour)
	return start, end
}
