package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/email"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/repository"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/nurturing"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/scheduler"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/whatsapp"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/config"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/db"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"
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

	repo := repository.New(pool)
	whatsappClient := whatsapp.NewClient(cfg, log)

	var emailSender nurturing.EmailSender
	if smtp := email.NewSMTPSender(cfg); smtp != nil {
		emailSender = smtp
	} else {
		log.Warn("email delivery disabled; cold lead reactivation will be skipped")
	}

	evaluator := nurturing.New(whatsappClient, emailSender, cfg.AgentName, cfg.CompanyName, log)

	worker, err := scheduler.NewWorker(cfg, cfg, repo, evaluator, whatsappClient, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodic(cfg, cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		worker.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		periodic.Run(groupCtx)
		return nil
	})

	if err := group.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
	}
	log.Info("scheduler shut down")
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
