package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"kejani_backend/internal/notifications/repository"
	"kejani_backend/platform/config"
	"kejani_backend/platform/logger"
)

const (
	outboxPollInterval = 2 * time.Second
	outboxClaimLimit   = 50
)

// OutboxStore claims due outbox rows and returns failed ones to the queue.
// Satisfied by the notifications repository.
type OutboxStore interface {
	ClaimDueOutbox(ctx context.Context, limit int) ([]repository.OutboxRecord, error)
	RescheduleOutbox(ctx context.Context, id uuid.UUID, runAt time.Time, lastError string) error
}

// OutboxDispatcher moves claimed notification outbox rows onto the asynq
// queue. Delivery itself happens in the worker.
type OutboxDispatcher struct {
	client *asynq.Client
	queue  string
	store  OutboxStore
	log    *logger.Logger
}

func NewOutboxDispatcher(cfg config.SchedulerConfig, store OutboxStore, log *logger.Logger) (*OutboxDispatcher, error) {
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

	return &OutboxDispatcher{
		client: asynq.NewClient(opt),
		queue:  queue,
		store:  store,
		log:    log,
	}, nil
}

func (d *OutboxDispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	ticker := time.NewTicker(outboxPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		d.dispatchOnce(ctx)
	}
}

func (d *OutboxDispatcher) dispatchOnce(ctx context.Context) {
	records, err := d.store.ClaimDueOutbox(ctx, outboxClaimLimit)
	if err != nil {
		d.log.Warn("outbox claim failed", "error", err)
		return
	}

	for _, rec := range records {
		task, err := NewNotificationOutboxDueTask(NotificationOutboxDuePayload{OutboxID: rec.ID.String()})
		if err != nil {
			if rerr := d.store.RescheduleOutbox(ctx, rec.ID, rec.RunAt, err.Error()); rerr != nil {
				d.log.Warn("outbox reschedule failed", "outboxId", rec.ID, "error", rerr)
			}
			continue
		}

		if _, err := d.client.EnqueueContext(ctx, task, asynq.ProcessAt(rec.RunAt), asynq.Queue(d.queue)); err != nil {
			if rerr := d.store.RescheduleOutbox(ctx, rec.ID, rec.RunAt, err.Error()); rerr != nil {
				d.log.Warn("outbox reschedule failed", "outboxId", rec.ID, "error", rerr)
			}
		}
	}
}
