// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithLead returns a logger bound to a lead identity.
func (l *Logger) WithLead(leadID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("lead_id", leadID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// ReasoningCall logs a reasoning-service round trip.
func (l *Logger) ReasoningCall(provider, model string, rounds int, latency time.Duration) {
	l.Debug("reasoning_call",
		slog.String("provider", provider),
		slog.String("model", model),
		slog.Int("round", rounds),
		slog.Float64("latency_ms", float64(latency.Milliseconds())),
	)
}

// ReasoningError logs a failed reasoning-service call.
func (l *Logger) ReasoningError(provider string, attempt int, err error) {
	l.Warn("reasoning_error",
		slog.String("provider", provider),
		slog.Int("attempt", attempt),
		slog.String("error", err.Error()),
	)
}

// ActionDispatched logs an action requested by the reasoning service.
func (l *Logger) ActionDispatched(name string, leadID string) {
	l.Info("action_dispatched",
		slog.String("action", name),
		slog.String("lead_id", leadID),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// PersistenceInconsistency logs a store write that failed after the
// in-memory state already advanced. The turn continues regardless.
func (l *Logger) PersistenceInconsistency(entity, key string, err error) {
	l.Warn("persistence_inconsistency",
		slog.String("entity", entity),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

// DeliveryError logs a failed outbound send on a given channel.
func (l *Logger) DeliveryError(channel, destination string, err error) {
	l.Warn("delivery_error",
		slog.String("channel", channel),
		slog.String("destination", destination),
		slog.String("error", err.Error()),
	)
}

// NurturingAction logs a re-engagement action taken for a lead.
func (l *Logger) NurturingAction(leadID, rule, channel string) {
	l.Info("nurturing_action",
		slog.String("lead_id", leadID),
		slog.String("rule", rule),
		slog.String("channel", channel),
	)
}

// ExtractionSkipped logs an extraction pass that left the profile unchanged.
func (l *Logger) ExtractionSkipped(leadID, reason string) {
	l.Debug("extraction_skipped",
		slog.String("lead_id", leadID),
		slog.String("reason", reason),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
