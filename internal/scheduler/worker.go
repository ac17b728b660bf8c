package scheduler

import (
	"context"
	"fmt"

	"funnel_backend/internal/events"
	"funnel_backend/platform/config"
	"funnel_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// OwnerRescorer recalculates every lead of one owner.
type OwnerRescorer interface {
	RescoreOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	rescorer OwnerRescorer
	bus      events.Bus
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, rescorer OwnerRescorer, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server:   server,
		rescorer: rescorer,
		bus:      bus,
		log:      log,
	}
	w.mux = w.newMux()
	return w, nil
}

func (w *Worker) newMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskFollowUpDue, w.handleFollowUpDue)
	mux.HandleFunc(TaskRescoreOwner, w.handleRescoreOwner)
	return mux
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleFollowUpDue(ctx context.Context, task *asynq.Task) error {
	if w.bus == nil {
		return nil
	}

	payload, err := ParseFollowUpPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("%w: lead id: %v", asynq.SkipRetry, err)
	}

	ownerID, err := uuid.Parse(payload.OwnerID)
	if err != nil {
		return fmt.Errorf("%w: owner id: %v", asynq.SkipRetry, err)
	}

	return w.bus.PublishSync(ctx, events.FollowUpDue{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		OwnerID:   ownerID,
	})
}

func (w *Worker) handleRescoreOwner(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRescoreOwnerPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	ownerID, err := uuid.Parse(payload.OwnerID)
	if err != nil {
		return fmt.Errorf("%w: owner id: %v", asynq.SkipRetry, err)
	}

	n, err := w.rescorer.RescoreOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	w.log.Info("owner leads rescored", "ownerId", ownerID, "leads", n)
	return nil
}
