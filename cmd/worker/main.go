package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"revenue_automation_backend/internal/agents"
	"revenue_automation_backend/internal/analytics"
	"revenue_automation_backend/internal/archive"
	"revenue_automation_backend/internal/crm"
	"revenue_automation_backend/internal/delivery"
	"revenue_automation_backend/internal/email"
	"revenue_automation_backend/internal/enrichment"
	"revenue_automation_backend/internal/followup"
	"revenue_automation_backend/internal/intake"
	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/internal/outreach"
	"revenue_automation_backend/internal/qualification"
	"revenue_automation_backend/internal/scheduler"
	"revenue_automation_backend/platform/config"
	"revenue_automation_backend/platform/db"
	"revenue_automation_backend/platform/events"
	"revenue_automation_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	registry, err := scheduler.NewRegistry(cfg)
	if err != nil {
		log.Error("failed to initialize queue registry", "error", err)
		panic("failed to initialize queue registry: " + err.Error())
	}
	defer func() { _ = registry.Close() }()

	redisClient, err := events.NewClient(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to initialize event client", "error", err)
		panic("failed to initialize event client: " + err.Error())
	}
	defer func() { _ = redisClient.Close() }()
	publisher := events.NewRedisPublisher(redisClient, cfg.GetEventsChannel(), log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	var store archive.Archive
	if err := withRetry(ctx, log, "outreach archive", 5, 2*time.Second, func() error {
		a, err := archive.New(ctx, cfg)
		if err != nil {
			return err
		}
		store = a
		return nil
	}); err != nil {
		log.Error("failed to initialize outreach archive", "error", err)
		panic("failed to initialize outreach archive: " + err.Error())
	}

	// ========================================================================
	// AI Collaborators
	// ========================================================================

	qualifier, err := agents.NewGeminiQualifier(ctx, cfg.GetGoogleAPIKey(), cfg.GetQualificationModel())
	if err != nil {
		log.Error("failed to initialize qualifier", "error", err)
		panic("failed to initialize qualifier: " + err.Error())
	}
	llm := agents.NewMoonshotModel(cfg.GetMoonshotAPIKey(), cfg.GetMoonshotModel())
	orchestrator, err := agents.NewOrchestrator(llm)
	if err != nil {
		panic("failed to initialize orchestrator: " + err.Error())
	}
	outreachWriter, err := agents.NewOutreachWriter(llm)
	if err != nil {
		panic("failed to initialize outreach writer: " + err.Error())
	}
	followUpWriter, err := agents.NewFollowUpWriter(llm)
	if err != nil {
		panic("failed to initialize follow-up writer: " + err.Error())
	}

	// ========================================================================
	// Pipeline Stages
	// ========================================================================

	repo := repository.New(pool)
	enricher := enrichment.NewFanout(enrichment.ProvidersFromConfig(cfg), repo, log)
	if !enricher.Enabled() {
		log.Warn("no enrichment providers configured; companies will not be enriched")
	}
	deliverer := delivery.New(sender, store, repo, repo,
		delivery.Sender{Address: cfg.GetOutreachFromAddress(), Name: cfg.GetOutreachFromName()}, log)

	intakeProcessor := intake.NewProcessor(repo, repo, enricher, registry, publisher, log, cfg.GetEnrichmentTimeout())
	qualificationProcessor := qualification.NewProcessor(
		qualification.Stores{Leads: repo, Snapshots: repo, FollowUps: repo, Timeline: repo},
		qualifier, orchestrator, registry, crm.FromConfig(cfg, log), publisher, log, cfg.GetRequalifyDelay(),
	)
	outreachProcessor := outreach.NewProcessor(
		outreach.Stores{Leads: repo, Sequences: repo, Timeline: repo},
		outreachWriter, deliverer, registry, publisher, log,
	)
	followUpProcessor := followup.NewProcessor(
		followup.Stores{Leads: repo, FollowUps: repo, Timeline: repo},
		followUpWriter, deliverer, publisher, log,
	)
	analyticsProcessor := analytics.NewProcessor(repo, repo, log)

	worker, err := scheduler.NewWorker(cfg, log)
	if err != nil {
		log.Error("failed to initialize queue worker", "error", err)
		panic("failed to initialize queue worker: " + err.Error())
	}
	handlers := map[string]asynq.HandlerFunc{
		scheduler.QueueIntake:        intakeProcessor.ProcessTask,
		scheduler.QueueQualification: qualificationProcessor.ProcessTask,
		scheduler.QueueOutreach:      outreachProcessor.ProcessTask,
		scheduler.QueueFollowUp:      followUpProcessor.ProcessTask,
		scheduler.QueueAnalytics:     analyticsProcessor.ProcessTask,
	}
	for queue, h := range handlers {
		if err := worker.Handle(queue, h); err != nil {
			panic("failed to register " + queue + " handler: " + err.Error())
		}
	}

	janitor, err := scheduler.NewRetentionJanitor(cfg, log)
	if err != nil {
		log.Error("failed to initialize queue retention", "error", err)
		panic("failed to initialize queue retention: " + err.Error())
	}
	trigger := scheduler.NewAnalyticsTrigger(cfg.GetAnalyticsCron(), repo, registry, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error { return trigger.Run(gctx) })
	g.Go(func() error {
		janitor.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("worker stopped with error", "error", err)
	}

	// Enrichment outlives its intake job; let it finish before the pool closes.
	intakeProcessor.Drain()
	log.Info("worker stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
