// Package leads provides the funnel lead bounded context: intake of step
// submissions, consolidation into lead profiles and rule-based scoring.
package leads

import (
	"funnel_backend/internal/events"
	apphttp "funnel_backend/internal/http"
	"funnel_backend/internal/leads/handler"
	"funnel_backend/internal/leads/ports"
	"funnel_backend/internal/leads/repository"
	"funnel_backend/internal/leads/service"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, rules ports.RuleSource, owners ports.FunnelOwnerResolver, eventBus events.Bus, val *validator.Validator, log *logger.Logger, opts ...service.Option) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, rules, owners, eventBus, log, opts...)

	return &Module{
		handler:       handler.New(svc, val),
		publicHandler: handler.NewPublicHandler(svc, val),
		service:       svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the scoring service for the scheduler and CLI tools.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the public intake and authenticated lead routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	funnels := ctx.V1.Group("/funnels")
	if ctx.SubmissionRateLimiter != nil {
		funnels.Use(ctx.SubmissionRateLimiter.RateLimit())
	}
	m.publicHandler.RegisterRoutes(funnels)

	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
