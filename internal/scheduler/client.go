package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/config"
)

// Client enqueues background jobs. A nil client drops them, used when no
// Redis is configured.
type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleVisitReminder queues the reminder to run at the given time.
func (c *Client) ScheduleVisitReminder(ctx context.Context, appt domain.Appointment, at time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewVisitReminderTask(VisitReminderPayload{
		AppointmentID: appt.ID.String(),
		LeadID:        appt.LeadID.String(),
		PropertyRef:   appt.PropertyRef,
		ScheduledAt:   appt.ScheduledAt,
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.ProcessAt(at), asynq.Queue(c.queue))
	return err
}

// EnqueueNurturingRun queues an immediate nurturing pass.
func (c *Client) EnqueueNurturingRun(ctx context.Context, batchSize int) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewNurturingRunTask(NurturingRunPayload{BatchSize: batchSize})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
