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
	"kejani_backend/internal/agents"
	"kejani_backend/internal/analytics"
	"kejani_backend/internal/auth"
	"kejani_backend/internal/bookings"
	"kejani_backend/internal/email"
	"kejani_backend/internal/events"
	apphttp "kejani_backend/internal/http"
	"kejani_backend/internal/http/router"
	"kejani_backend/internal/leads"
	"kejani_backend/internal/messaging"
	"kejani_backend/internal/notifications"
	"kejani_backend/internal/payments"
	"kejani_backend/internal/properties"
	"kejani_backend/internal/verification"
	verifrepo "kejani_backend/internal/verification/repository"
	"kejani_backend/internal/webhook"
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

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
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

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender := email.NewSender(cfg)
	whatsappClient := whatsapp.NewClient(cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Verification keeps user and agent-profile verification flags in sync.
	// Constructed before the auth and agents modules, which both depend on it.
	verifService := verification.NewService(verifrepo.New(pool), eventBus, log)

	authModule := auth.NewModule(pool, cfg, verifService, eventBus, log)
	agentsModule := agents.NewModule(pool, verifService, log)
	leadsModule := leads.NewModule(pool, eventBus, log)
	leadsModule.RegisterHandlers(eventBus)

	// Payments before properties: listing creation reports usage against the
	// agent's subscription.
	paymentsModule := payments.NewModule(pool, cfg, eventBus, log)
	usageRecorder := &adapters.SubscriptionUsageRecorder{Payments: paymentsModule.Service()}
	propertiesModule := properties.NewModule(pool, usageRecorder, eventBus, log)

	propertyResolver := adapters.BookingPropertyResolver{Repo: propertiesModule.Repository()}
	bookingsModule := bookings.NewModule(pool, propertyResolver, eventBus, log)

	messagingModule := messaging.NewModule(pool, eventBus, log)

	directory := &adapters.NotificationDirectory{Users: authModule.Repository()}
	notificationsModule := notifications.NewModule(pool, sender, whatsappClient, directory, log)
	notificationsModule.RegisterHandlers(eventBus)

	analyticsModule := analytics.NewModule(pool, log)
	analyticsModule.RegisterHandlers(eventBus)

	// Website forms and inbound WhatsApp messages feed the lead pipeline.
	webhookModule := webhook.NewModule(pool, leadsModule.Service(), cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			agentsModule,
			propertiesModule,
			leadsModule,
			bookingsModule,
			messagingModule,
			notificationsModule,
			paymentsModule,
			analyticsModule,
			webhookModule,
		},
	}

	engine := router.New(app)

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
