// Package agents implements public agent listing pages, agent profiles and
// reviews.
package agents

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"kejani_backend/internal/agents/handler"
	"kejani_backend/internal/agents/repository"
	"kejani_backend/internal/agents/service"
	"kejani_backend/internal/http"
	"kejani_backend/internal/verification"
	"kejani_backend/platform/logger"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, verif *verification.Service, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{
		handler: handler.New(svc, verif),
	}
}

func (m *Module) Name() string { return "agents" }

func (m *Module) RegisterRoutes(rc *http.RouterContext) {
	public := rc.V1.Group("/agents")
	{
		public.GET("", m.handler.List)
		public.GET("/:slug", m.handler.GetBySlug)
	}

	mine := rc.Agent.Group("/agent-profile")
	{
		mine.POST("", m.handler.CreateProfile)
		mine.GET("", m.handler.GetMyProfile)
		mine.PATCH("", m.handler.UpdateMyProfile)
	}

	reviews := rc.Protected.Group("/agent-reviews")
	{
		reviews.POST("/:id", m.handler.AddReview)
		reviews.GET("/:id", m.handler.ListReviews)
	}

	admin := rc.Management.Group("/agent-profiles")
	{
		admin.POST("/:id/verify", m.handler.SetVerified)
	}
}
