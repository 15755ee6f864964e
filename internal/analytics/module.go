// Package analytics tracks views, searches and lead conversions, and serves
// the role-shaped dashboards built from them.
package analytics

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"kejani_backend/internal/analytics/handler"
	"kejani_backend/internal/analytics/repository"
	"kejani_backend/internal/analytics/service"
	"kejani_backend/internal/events"
	"kejani_backend/internal/http"
	"kejani_backend/platform/logger"
)

type Module struct {
	handler    *handler.Handler
	subscriber *subscriber
}

func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{
		handler:    handler.New(svc),
		subscriber: &subscriber{service: svc},
	}
}

func (m *Module) Name() string { return "analytics" }

func (m *Module) RegisterHandlers(bus events.Bus) {
	m.subscriber.register(bus)
}

func (m *Module) RegisterRoutes(rc *http.RouterContext) {
	rc.Protected.GET("/analytics/dashboard", m.handler.Dashboard)
	rc.Agent.GET("/analytics/properties/:id", m.handler.PropertyAnalytics)
}
