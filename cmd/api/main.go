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

	"funnel_backend/internal/adapters"
	"funnel_backend/internal/adapters/storage"
	"funnel_backend/internal/email"
	"funnel_backend/internal/events"
	apphttp "funnel_backend/internal/http"
	"funnel_backend/internal/http/router"
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
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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

	redisClient := initRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	appMetrics := metrics.New()

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	jobs, closeJobs := initSchedulerClient(cfg, log)
	if closeJobs != nil {
		defer closeJobs()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	rulesModule, err := rules.NewModule(pool, redisClient, cfg.GetRuleCacheTTL(), eventBus, val, appMetrics, log)
	if err != nil {
		log.Error("failed to initialize scoring rules module", "error", err)
		panic("failed to initialize scoring rules module: " + err.Error())
	}

	leadOpts := []leadservice.Option{
		leadservice.WithMetrics(appMetrics),
		leadservice.WithPhoneRegion(cfg.GetPhoneDefaultRegion()),
	}
	leadOpts = append(leadOpts, optionalLeadIntegrations(ctx, cfg, log)...)

	leadsModule := leads.NewModule(pool, rulesModule.RuleSource(), adapters.NewFunnelOwnerResolver(pool), eventBus, val, log, leadOpts...)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(email.NewSender(cfg), adapters.NewOwnerDirectory(pool), cfg, log)
	notificationModule.SetLeadReader(leadsModule.Service())
	if jobs != nil {
		notificationModule.SetFollowUpScheduler(jobs)
		scheduler.NewRescoreTrigger(jobs, log).RegisterHandlers(eventBus)
	}
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Metrics: appMetrics,
		Health:  pool,
		Modules: []apphttp.Module{
			rulesModule,
			leadsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// optionalLeadIntegrations wires the score archive and tone classifier when configured.
func optionalLeadIntegrations(ctx context.Context, cfg *config.Config, log *logger.Logger) []leadservice.Option {
	var opts []leadservice.Option

	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		var archiver *adapters.ScoreArchiver
		if err := withRetry(ctx, log, "ensure score archive bucket", 5, 2*time.Second, func() error {
			a, err := adapters.NewScoreArchiver(ctx, storageSvc, cfg.GetMinioBucketScoreArchive())
			if err != nil {
				return err
			}
			archiver = a
			return nil
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketScoreArchive())
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		opts = append(opts, leadservice.WithScoreArchiver(archiver))
		log.Info("score archive enabled", "bucket", cfg.GetMinioBucketScoreArchive())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; score history disabled")
	}

	if cfg.IsToneClassifierEnabled() {
		classifier, err := adapters.NewGeminiToneClassifier(ctx, cfg)
		if err != nil {
			log.Error("failed to initialize tone classifier", "error", err)
		} else {
			opts = append(opts, leadservice.WithToneClassifier(classifier))
			log.Info("tone classifier enabled", "model", cfg.GetGeminiModel())
		}
	}

	return opts
}

func initRedis(ctx context.Context, cfg config.CacheConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; scoring rule cache disabled")
		return nil
	}

	client, err := cache.NewClient(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to redis; scoring rule cache disabled", "error", err)
		return nil
	}
	return client
}

func initSchedulerClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up reminders and async rescoring disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
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
