// Package http holds the contract between the router and the HTTP-facing
// modules (scoring rules, leads) plus the dependencies the router needs.
package http

import (
	"context"

	"funnel_backend/platform/config"
	"funnel_backend/platform/httpkit"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/metrics"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that mounts its own routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what a module may attach routes and middleware to.
type RouterContext struct {
	// V1 is the public /api/v1 group; funnel intake lives here.
	V1 *gin.RouterGroup
	// Protected is /api/v1 behind bearer authentication.
	Protected *gin.RouterGroup
	// SubmissionRateLimiter throttles anonymous submissions per client IP.
	SubmissionRateLimiter *httpkit.IPRateLimiter
}

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
	config.IntakeConfig
}

// HealthChecker reports whether the database is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is populated by the composition root and handed to the router.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Metrics *metrics.Metrics
	Health  HealthChecker
	Modules []Module
}
