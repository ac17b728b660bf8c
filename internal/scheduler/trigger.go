package scheduler

import (
	"context"

	"funnel_backend/internal/events"
	"funnel_backend/platform/logger"

	"github.com/google/uuid"
)

// RescoreEnqueuer queues an owner-wide rescore.
type RescoreEnqueuer interface {
	EnqueueRescoreOwner(ctx context.Context, ownerID uuid.UUID) error
}

// RescoreTrigger turns rule changes into rescore jobs.
type RescoreTrigger struct {
	enqueuer RescoreEnqueuer
	log      *logger.Logger
}

func NewRescoreTrigger(enqueuer RescoreEnqueuer, log *logger.Logger) *RescoreTrigger {
	return &RescoreTrigger{enqueuer: enqueuer, log: log}
}

func (t *RescoreTrigger) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ScoringRulesChanged{}.EventName(), t)
}

func (t *RescoreTrigger) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ScoringRulesChanged)
	if !ok {
		return nil
	}
	if err := t.enqueuer.EnqueueRescoreOwner(ctx, e.OwnerID); err != nil {
		t.log.WithContext(ctx).Error("failed to enqueue owner rescore", "ownerId", e.OwnerID, "action", e.Action, "error", err)
		return err
	}
	return nil
}
