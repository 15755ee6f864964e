// Package notifications delivers in-app notifications and fans domain events
// out to email and WhatsApp through a persistent outbox.
package notifications

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"kejani_backend/internal/email"
	"kejani_backend/internal/events"
	"kejani_backend/internal/http"
	"kejani_backend/internal/notifications/handler"
	"kejani_backend/internal/notifications/repository"
	"kejani_backend/internal/notifications/service"
	"kejani_backend/platform/logger"
)

type Module struct {
	handler    *handler.Handler
	service    *service.Service
	subscriber *subscriber
}

func NewModule(pool *pgxpool.Pool, sender email.Sender, whatsapp service.WhatsAppSender, directory Directory, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, sender, whatsapp, log)

	return &Module{
		handler: handler.New(svc),
		service: svc,
		subscriber: &subscriber{
			service:   svc,
			directory: directory,
			logger:    log,
		},
	}
}

func (m *Module) Name() string { return "notifications" }

// Service exposes the outbox dispatcher for the background worker.
func (m *Module) Service() *service.Service { return m.service }

// RegisterHandlers subscribes to the domain events this module reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	m.subscriber.register(bus)
}

func (m *Module) RegisterRoutes(rc *http.RouterContext) {
	notifications := rc.Protected.Group("/notifications")
	{
		notifications.GET("", m.handler.List)
		notifications.POST("/read-all", m.handler.MarkAllRead)
		notifications.POST("/:id/read", m.handler.MarkRead)
		notifications.DELETE("/:id", m.handler.Delete)
	}
}
