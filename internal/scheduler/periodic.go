package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/AldoPgm/Agente-Inmobiliario/platform/config"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"
)

// Periodic enqueues the recurring nurturing pass on a fixed interval.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, nurturingCfg config.NurturingConfig, log *logger.Logger) (*Periodic, error) {
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

	interval := nurturingCfg.GetNurturingInterval()
	if interval < time.Minute {
		interval = 6 * time.Hour
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})

	task, err := NewNurturingRunTask(NurturingRunPayload{BatchSize: nurturingCfg.GetNurturingBatchSize()})
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(fmt.Sprintf("@every %s", interval), task, asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("register nurturing schedule: %w", err)
	}

	return &Periodic{scheduler: scheduler, log: log}, nil
}

// Run blocks until the context is cancelled.
func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}

	go func() {
		<-ctx.Done()
		p.scheduler.Shutdown()
	}()

	if err := p.scheduler.Run(); err != nil {
		p.log.Error("periodic scheduler stopped", "error", err)
	}
}
