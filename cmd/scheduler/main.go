package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funnel_backend/internal/adapters"
	"funnel_backend/internal/email"
	"funnel_backend/internal/events"
	"funnel_backend/internal/leads"
	leadservice "funnel_backend/internal/leads/service"
	"funnel_backend/internal/notification"
	"funnel_backend/internal/rules"
	"funnel_backend/internal/scheduler"
	"funnel_backend/platform/cache"
	"funnel_backend/platform/config"
	"funnel_backend/platform/db"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/metrics"
	"funnel_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	redisClient, err := cache.NewClient(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() { _ = redisClient.Close() }()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	appMetrics := metrics.New()

	// Worker-side scoring wiring (no HTTP handlers required).
	rulesModule, err := rules.NewModule(pool, redisClient, cfg.GetRuleCacheTTL(), eventBus, val, appMetrics, log)
	if err != nil {
		log.Error("failed to initialize scoring rules module", "error", err)
		panic("failed to initialize scoring rules module: " + err.Error())
	}
	leadsModule := leads.NewModule(pool, rulesModule.RuleSource(), adapters.NewFunnelOwnerResolver(pool), eventBus, val, log,
		leadservice.WithMetrics(appMetrics),
		leadservice.WithPhoneRegion(cfg.GetPhoneDefaultRegion()),
	)

	jobs, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = jobs.Close() }()

	notificationModule := notification.New(email.NewSender(cfg), adapters.NewOwnerDirectory(pool), cfg, log)
	notificationModule.SetLeadReader(leadsModule.Service())
	notificationModule.SetFollowUpScheduler(jobs)
	notificationModule.RegisterHandlers(eventBus)

	worker, err := scheduler.NewWorker(cfg, leadsModule.Service(), eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	eventBus.Wait()
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
