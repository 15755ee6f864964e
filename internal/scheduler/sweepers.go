package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	bookingtransport "kejani_backend/internal/bookings/transport"
	"kejani_backend/platform/config"
	"kejani_backend/platform/logger"
)

const (
	reminderPollInterval = time.Minute
	reminderWindow       = time.Hour
	expiryPollInterval   = time.Hour
)

// ReminderSource yields confirmed bookings whose reminder is due. Satisfied
// by the bookings service, which marks returned rows as reminded.
type ReminderSource interface {
	DueReminders(ctx context.Context, window time.Duration) ([]bookingtransport.BookingResponse, error)
}

// BookingReminderSweeper periodically enqueues reminder tasks for upcoming
// viewings.
type BookingReminderSweeper struct {
	client *asynq.Client
	queue  string
	source ReminderSource
	log    *logger.Logger
}

func NewBookingReminderSweeper(cfg config.SchedulerConfig, source ReminderSource, log *logger.Logger) (*BookingReminderSweeper, error) {
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

	return &BookingReminderSweeper{
		client: asynq.NewClient(opt),
		queue:  queue,
		source: source,
		log:    log,
	}, nil
}

func (s *BookingReminderSweeper) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *BookingReminderSweeper) Run(ctx context.Context) {
	if s == nil || s.client == nil {
		return
	}

	ticker := time.NewTicker(reminderPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.sweepOnce(ctx)
	}
}

func (s *BookingReminderSweeper) sweepOnce(ctx context.Context) {
	due, err := s.source.DueReminders(ctx, reminderWindow)
	if err != nil {
		s.log.Warn("reminder sweep failed", "error", err)
		return
	}

	for _, booking := range due {
		task, err := NewBookingReminderTask(BookingReminderPayload{
			BookingID:  booking.ID.String(),
			PropertyID: booking.PropertyID.String(),
			ClientID:   booking.ClientID.String(),
			AgentID:    booking.AgentID.String(),
			Date:       booking.BookingDate,
		})
		if err != nil {
			s.log.Warn("reminder task build failed", "bookingId", booking.ID, "error", err)
			continue
		}
		if _, err := s.client.EnqueueContext(ctx, task, asynq.Queue(s.queue)); err != nil {
			s.log.Warn("reminder enqueue failed", "bookingId", booking.ID, "error", err)
		}
	}
}

// SubscriptionExpirer flips active subscriptions past their end date to
// expired. Satisfied by the payments service.
type SubscriptionExpirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// SubscriptionExpirySweeper runs the expiry sweep on a fixed interval. No
// queue involved; the sweep is a single UPDATE.
type SubscriptionExpirySweeper struct {
	expirer SubscriptionExpirer
	log     *logger.Logger
}

func NewSubscriptionExpirySweeper(expirer SubscriptionExpirer, log *logger.Logger) *SubscriptionExpirySweeper {
	return &SubscriptionExpirySweeper{expirer: expirer, log: log}
}

func (s *SubscriptionExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(expiryPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		expired, err := s.expirer.ExpireDue(ctx)
		if err != nil {
			s.log.Warn("subscription expiry sweep failed", "error", err)
			continue
		}
		if expired > 0 {
			s.log.Info("subscriptions expired", "count", expired)
		}
	}
}
