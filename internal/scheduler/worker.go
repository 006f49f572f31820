package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/repository"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/nurturing"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/config"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"
)

// ChatSender delivers the visit reminder text.
type ChatSender interface {
	SendText(ctx context.Context, phone, text string) error
}

// Worker consumes the background queue.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	leads     repository.LeadReader
	evaluator *nurturing.Evaluator
	chat      ChatSender
	batchSize int
	log       *logger.Logger
}

func NewWorker(
	cfg config.SchedulerConfig,
	nurturingCfg config.NurturingConfig,
	leads repository.LeadReader,
	evaluator *nurturing.Evaluator,
	chat ChatSender,
	log *logger.Logger,
) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	batchSize := nurturingCfg.GetNurturingBatchSize()
	if batchSize < 1 {
		batchSize = 200
	}

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		leads:     leads,
		evaluator: evaluator,
		chat:      chat,
		batchSize: batchSize,
		log:       log,
	}

	mux.HandleFunc(TaskVisitReminder, w.handleVisitReminder)
	mux.HandleFunc(TaskNurturingRun, w.handleNurturingRun)

	return w, nil
}

// Run blocks until the context is cancelled.
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

func (w *Worker) handleVisitReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseVisitReminderPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	lead, err := w.leads.GetByID(ctx, leadID)
	if err != nil {
		return err
	}
	if lead.Phone == "" {
		return nil
	}

	name := lead.FirstName()
	greeting := "¡Hola!"
	if name != "" {
		greeting = fmt.Sprintf("¡Hola %s!", name)
	}

	text := fmt.Sprintf(
		"%s 👋\n\nTe recuerdo tu visita de mañana:\n"+
			"🏠 Propiedad: %s\n📅 Fecha: %s\n🕐 Hora: %s\n\n"+
			"Si necesitas cambiar la cita, dímelo y buscamos otro horario. ¡Te esperamos!",
		greeting,
		payload.PropertyRef,
		payload.ScheduledAt.Format("02/01/2006"),
		payload.ScheduledAt.Format("15:04"),
	)

	if err := w.chat.SendText(ctx, lead.Phone, text); err != nil {
		return fmt.Errorf("send visit reminder: %w", err)
	}
	return nil
}

func (w *Worker) handleNurturingRun(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseNurturingRunPayload(task)
	if err != nil {
		return err
	}

	batch := payload.BatchSize
	if batch < 1 {
		batch = w.batchSize
	}

	leads, err := w.leads.ListActive(ctx, batch)
	if err != nil {
		return fmt.Errorf("list active leads: %w", err)
	}

	summary := w.evaluator.EvaluateAndAct(ctx, leads)
	w.log.Info("nurturing pass completed",
		"candidates", len(leads),
		"processed", summary.Processed,
		"messages_sent", summary.MessagesSent,
		"emails_sent", summary.EmailsSent,
		"errors", summary.Errors,
	)
	return nil
}
