package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"revenue_automation_backend/internal/events/sse"
	apphttp "revenue_automation_backend/internal/http"
	"revenue_automation_backend/internal/http/router"
	"revenue_automation_backend/internal/leads"
	"revenue_automation_backend/internal/scheduler"
	"revenue_automation_backend/platform/config"
	"revenue_automation_backend/platform/db"
	"revenue_automation_backend/platform/events"
	"revenue_automation_backend/platform/logger"
	"revenue_automation_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting api", "env", cfg.Env, "addr", cfg.GetHTTPAddr())

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
	log.Info("database connection established")

	registry, err := scheduler.NewRegistry(cfg)
	if err != nil {
		log.Error("failed to initialize queue registry", "error", err)
		panic("failed to initialize queue registry: " + err.Error())
	}
	defer func() { _ = registry.Close() }()

	// Workers publish on Redis; the API relays the channel to SSE clients.
	stream := sse.New(log)
	defer stream.Close()
	redisClient, err := events.NewClient(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to initialize event client", "error", err)
		panic("failed to initialize event client: " + err.Error())
	}
	defer func() { _ = redisClient.Close() }()
	go func() {
		sub := events.NewSubscriber(redisClient, cfg.GetEventsChannel(), log)
		if err := sub.Run(ctx, stream); err != nil {
			log.Error("event subscriber stopped", "error", err)
		}
	}()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	val := validator.New()
	leadsModule := leads.NewModule(pool, registry, val)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  db.NewPoolAdapter(pool),
		Events:  stream.Handler(),
		Modules: []apphttp.Module{leadsModule},
	}

	srv := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		// Open event streams never finish on their own.
		stream.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
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
