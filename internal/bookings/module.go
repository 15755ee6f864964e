// Package bookings implements property viewing appointments.
package bookings

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"kejani_backend/internal/bookings/handler"
	"kejani_backend/internal/bookings/repository"
	"kejani_backend/internal/bookings/service"
	"kejani_backend/internal/events"
	"kejani_backend/internal/http"
	"kejani_backend/platform/logger"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, properties service.PropertyResolver, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, properties, bus, log)

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

func (m *Module) Name() string { return "bookings" }

// Service exposes the reminder sweep for the background worker.
func (m *Module) Service() *service.Service { return m.service }

func (m *Module) RegisterRoutes(rc *http.RouterContext) {
	bookings := rc.Protected.Group("/bookings")
	{
		bookings.POST("", m.handler.Create)
		bookings.GET("", m.handler.List)
		bookings.GET("/:id", m.handler.Get)
		bookings.PATCH("/:id/status", m.handler.UpdateStatus)
	}
}
