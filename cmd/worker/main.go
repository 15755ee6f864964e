package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"kejani_backend/internal/adapters"
	authrepo "kejani_backend/internal/auth/repository"
	"kejani_backend/internal/bookings"
	"kejani_backend/internal/email"
	"kejani_backend/internal/events"
	"kejani_backend/internal/notifications"
	notifrepo "kejani_backend/internal/notifications/repository"
	"kejani_backend/internal/payments"
	proprepo "kejani_backend/internal/properties/repository"
	"kejani_backend/internal/scheduler"
	"kejani_backend/internal/whatsapp"
	"kejani_backend/platform/config"
	"kejani_backend/platform/db"
	"kejani_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

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

	eventBus := events.NewInMemoryBus(log)

	sender := email.NewSender(cfg)
	whatsappClient := whatsapp.NewClient(cfg, log)

	// Notification handlers deliver the events the worker republishes from
	// the queue (outbox rows, booking reminders).
	directory := &adapters.NotificationDirectory{Users: authrepo.New(pool)}
	notificationsModule := notifications.NewModule(pool, sender, whatsappClient, directory, log)
	notificationsModule.RegisterHandlers(eventBus)

	paymentsModule := payments.NewModule(pool, cfg, eventBus, log)

	propertyResolver := adapters.BookingPropertyResolver{Repo: proprepo.New(pool)}
	bookingsModule := bookings.NewModule(pool, propertyResolver, eventBus, log)

	dispatcher, err := scheduler.NewOutboxDispatcher(cfg, notifrepo.New(pool), log)
	if err != nil {
		log.Error("failed to initialize outbox dispatcher", "error", err)
		panic("failed to initialize outbox dispatcher: " + err.Error())
	}
	defer func() { _ = dispatcher.Close() }()
	go dispatcher.Run(ctx)

	reminderSweeper, err := scheduler.NewBookingReminderSweeper(cfg, bookingsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize booking reminder sweeper", "error", err)
		panic("failed to initialize booking reminder sweeper: " + err.Error())
	}
	defer func() { _ = reminderSweeper.Close() }()
	go reminderSweeper.Run(ctx)

	expirySweeper := scheduler.NewSubscriptionExpirySweeper(paymentsModule.Service(), log)
	go expirySweeper.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("worker stopped")
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

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
