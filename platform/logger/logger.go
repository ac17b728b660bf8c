// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const (
	// RequestIDKey carries the X-Request-ID of the current request.
	RequestIDKey contextKey = "request_id"
	// UserIDKey carries the authenticated funnel owner.
	UserIDKey contextKey = "user_id"
)

// Logger wraps slog.Logger with the application's log vocabulary.
type Logger struct {
	*slog.Logger
}

// New returns a text logger at debug level in development and a JSON logger
// at info level everywhere else.
func New(env string) *Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext attaches the request and user ids found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	var attrs []any
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}
	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		attrs = append(attrs, slog.String("user_id", userID))
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{Logger: l.With(attrs...)}
}

// HTTPRequest logs a finished request. Server errors are logged at error
// level together with the cause recorded on the request.
func (l *Logger) HTTPRequest(ctx context.Context, method, route string, status int, latencyMs float64, clientIP string, cause string) {
	attrs := []any{
		slog.String("method", method),
		slog.String("route", route),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	}
	log := l.WithContext(ctx)
	if status >= 500 {
		log.Error("http_request", append(attrs, slog.String("error", cause))...)
		return
	}
	log.Info("http_request", attrs...)
}

// RuleSkipped logs a scoring rule that could not be evaluated.
func (l *Logger) RuleSkipped(ruleID, ruleName, reason, conditionValue string) {
	l.Warn("scoring_rule_skipped",
		slog.String("rule_id", ruleID),
		slog.String("rule_name", ruleName),
		slog.String("reason", reason),
		slog.String("condition_value", conditionValue),
	)
}

// ScoreCalculated logs the outcome of a scoring pass.
func (l *Logger) ScoreCalculated(leadID string, score int, qualification string, ruleCount int) {
	l.Info("lead_score_calculated",
		slog.String("lead_id", leadID),
		slog.Int("score", score),
		slog.String("qualification", qualification),
		slog.Int("rule_count", ruleCount),
	)
}

// RateLimitExceeded logs a throttled intake request.
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
