package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"revenue_automation_backend/platform/apperr"
	"revenue_automation_backend/platform/config"
	"revenue_automation_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker runs one asynq server per queue so each stage gets its own
// concurrency limit.
type Worker struct {
	opt     asynq.RedisClientOpt
	cfg     config.SchedulerConfig
	log     *logger.Logger
	muxes   map[string]*asynq.ServeMux
	servers map[string]*asynq.Server
}

func NewWorker(cfg config.SchedulerConfig, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Worker{
		opt:     opt,
		cfg:     cfg,
		log:     log,
		muxes:   make(map[string]*asynq.ServeMux),
		servers: make(map[string]*asynq.Server),
	}, nil
}

// Handle registers the processor for a queue. Queues without a handler are
// not consumed by this process.
func (w *Worker) Handle(queue string, h asynq.Handler) error {
	if !knownQueue(queue) {
		return fmt.Errorf("unknown queue %q", queue)
	}
	if _, ok := w.muxes[queue]; ok {
		return fmt.Errorf("queue %q already has a handler", queue)
	}

	mux := asynq.NewServeMux()
	mux.Use(w.jobLogging, skipRetryOnTerminal)
	mux.Handle(queue, h)
	w.muxes[queue] = mux

	concurrency := w.cfg.GetQueueConcurrency(queue)
	if concurrency < 1 {
		concurrency = 1
	}
	w.servers[queue] = asynq.NewServer(w.opt, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{queue: 1},
		ShutdownTimeout: 30 * time.Second,
		Logger:          asynqLogger{log: w.log},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			w.log.JobFailed(task.Type(), apperr.Retryable(err), err)
		}),
	})
	return nil
}

// Run starts every registered server and blocks until ctx is cancelled, then
// shuts them down.
func (w *Worker) Run(ctx context.Context) error {
	if len(w.servers) == 0 {
		return fmt.Errorf("no queue handlers registered")
	}

	started := make([]*asynq.Server, 0, len(w.servers))
	for queue, srv := range w.servers {
		if err := srv.Start(w.muxes[queue]); err != nil {
			for _, s := range started {
				s.Shutdown()
			}
			return fmt.Errorf("start %s worker: %w", queue, err)
		}
		w.log.Info("queue worker started", "queue", queue, "concurrency", w.cfg.GetQueueConcurrency(queue))
		started = append(started, srv)
	}

	<-ctx.Done()
	for _, srv := range started {
		srv.Shutdown()
	}
	w.log.Info("queue workers stopped")
	return nil
}

// skipRetryOnTerminal archives tasks whose error cannot be fixed by retrying.
func skipRetryOnTerminal(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		err := next.ProcessTask(ctx, task)
		if err != nil && !apperr.Retryable(err) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	})
}

func (w *Worker) jobLogging(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		taskID, _ := asynq.GetTaskID(ctx)
		retried, _ := asynq.GetRetryCount(ctx)
		log := w.log.WithJob(task.Type(), taskID)

		start := time.Now()
		err := next.ProcessTask(ctx, task)
		elapsed := time.Since(start)
		if err != nil {
			log.Warn("job attempt failed", "attempt", retried+1, "duration_ms", elapsed.Milliseconds(), "error", err)
			return err
		}
		log.Debug("job completed", "attempt", retried+1, "duration_ms", elapsed.Milliseconds())
		return nil
	})
}

// asynqLogger routes broker diagnostics through the application logger.
type asynqLogger struct {
	log *logger.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) {
	l.log.Error(fmt.Sprint(args...))
	os.Exit(1)
}
