// Package properties implements the public listing catalogue: locations,
// property CRUD, search and saved listings.
package properties

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"kejani_backend/internal/events"
	"kejani_backend/internal/http"
	"kejani_backend/internal/properties/handler"
	"kejani_backend/internal/properties/repository"
	"kejani_backend/internal/properties/service"
	"kejani_backend/platform/logger"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

func NewModule(pool *pgxpool.Pool, usage service.UsageRecorder, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, usage, bus, log)

	return &Module{
		handler: handler.New(svc),
		service: svc,
		repo:    repo,
	}
}

func (m *Module) Name() string { return "properties" }

func (m *Module) Service() *service.Service { return m.service }

// Repository exposes the listing store for cross-module wiring.
func (m *Module) Repository() *repository.Repository { return m.repo }

func (m *Module) RegisterRoutes(rc *http.RouterContext) {
	public := rc.V1.Group("/properties")
	{
		public.GET("", m.handler.List)
		public.GET("/:slug", m.handler.GetBySlug)
	}
	rc.V1.GET("/locations", m.handler.ListLocations)

	agent := rc.Agent.Group("/properties")
	{
		agent.POST("", m.handler.Create)
		agent.PATCH("/:id", m.handler.Update)
		agent.DELETE("/:id", m.handler.Delete)
	}
	rc.Management.POST("/locations", m.handler.CreateLocation)

	saved := rc.Protected.Group("")
	{
		saved.POST("/properties/:id/save", m.handler.Save)
		saved.DELETE("/properties/:id/save", m.handler.Unsave)
		saved.GET("/saved-properties", m.handler.ListSaved)
	}
}
