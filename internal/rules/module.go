// Package rules provides the scoring rule store: owner-scoped CRUD for the
// rules the lead scoring engine evaluates, with a Redis snapshot of each
// owner's active rules.
package rules

import (
	"time"

	"funnel_backend/internal/events"
	apphttp "funnel_backend/internal/http"
	"funnel_backend/internal/leads/ports"
	"funnel_backend/internal/rules/handler"
	"funnel_backend/internal/rules/repository"
	"funnel_backend/internal/rules/service"
	"funnel_backend/internal/rules/transport"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/metrics"
	"funnel_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the scoring rules module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the rule store. A nil redisClient disables the snapshot cache.
func NewModule(pool *pgxpool.Pool, redisClient *redis.Client, cacheTTL time.Duration, eventBus events.Bus, val *validator.Validator, m *metrics.Metrics, log *logger.Logger) (*Module, error) {
	if err := transport.RegisterValidations(val.RegisterValidation); err != nil {
		return nil, err
	}

	var opts []service.Option
	if redisClient != nil {
		opts = append(opts, service.WithCache(repository.NewSnapshotCache(redisClient, cacheTTL, m)))
	}
	svc := service.New(repository.New(pool), eventBus, log, opts...)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "scoring-rules"
}

// Service returns the rule service.
func (m *Module) Service() *service.Service {
	return m.service
}

// RuleSource exposes the active rule snapshot to the scoring engine.
func (m *Module) RuleSource() ports.RuleSource {
	return m.service
}

// RegisterRoutes mounts the authenticated rule routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/scoring-rules"))
}

var _ apphttp.Module = (*Module)(nil)
