package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/agent"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/conversation"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/email"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/handoff"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/qualifier"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/repository"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/properties"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/scheduler"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/scheduling"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/webhook"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/whatsapp"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/ai/geminichat"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/ai/openaichat"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/ai/reasoning"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/config"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/db"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/events"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting api", "env", cfg.Env, "addr", cfg.HTTPAddr, "provider", cfg.AIProvider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.Migrate(ctx, cfg)
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

	eventBus := events.NewInMemoryBus(log)

	reasoner, err := newReasoner(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize reasoning client", "error", err)
		panic("failed to initialize reasoning client: " + err.Error())
	}

	reminders, closeReminders := initReminderScheduler(cfg, log)
	if closeReminders != nil {
		defer closeReminders()
	}

	// ========================================================================
	// Domain wiring
	// ========================================================================

	repo := repository.New(pool)
	conversations := conversation.New(repo, log, cfg.ContextWindowMessages)
	catalog := properties.NewManager(repo)
	visits := scheduling.New(repo, reminders, log)
	handoffCoordinator := handoff.NewCoordinator(repo, eventBus, log)

	whatsappClient := whatsapp.NewClient(cfg, log)

	var teamSender email.Sender
	if smtp := email.NewSMTPSender(cfg); smtp != nil {
		teamSender = smtp
	}
	email.NewTeamNotifier(eventBus, teamSender, cfg.TeamEmail, log)

	responder := agent.NewResponder(reasoner, catalog, visits, handoffCoordinator, agent.Config{
		AgentName:   cfg.AgentName,
		CompanyName: cfg.CompanyName,
		MaxRounds:   cfg.MaxToolRounds,
		Temperature: cfg.AITemperature,
		MaxTokens:   cfg.AIMaxTokens,
	}, log)

	leadQualifier := qualifier.New(reasoner, conversations, repo, repo, eventBus, log)

	service := webhook.NewService(repo, conversations, responder, leadQualifier, whatsappClient, log)
	handler := webhook.NewHandler(service, validator.New())

	// ========================================================================
	// HTTP
	// ========================================================================

	engine := webhook.NewRouter(handler, log)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func newReasoner(ctx context.Context, cfg *config.Config) (reasoning.Reasoner, error) {
	switch cfg.AIProvider {
	case "gemini":
		return geminichat.New(ctx, geminichat.Config{
			APIKey: cfg.AIAPIKey,
			Model:  cfg.AIModel,
		})
	default:
		return openaichat.New(openaichat.Config{
			APIKey:            cfg.AIAPIKey,
			BaseURL:           cfg.AIBaseURL,
			Model:             cfg.AIModel,
			Timeout:           cfg.AITimeout,
			RequestsPerMinute: cfg.AIRequestsPerMinute,
		}), nil
	}
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduling.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; visit reminders disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder client", "error", err)
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
	return fmt.Errorf("%s: %w", name, lastErr)
}
