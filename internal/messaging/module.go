// Package messaging implements direct conversations between clients and agents.
package messaging

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"kejani_backend/internal/events"
	"kejani_backend/internal/http"
	"kejani_backend/internal/messaging/handler"
	"kejani_backend/internal/messaging/repository"
	"kejani_backend/internal/messaging/service"
	"kejani_backend/platform/logger"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)

	return &Module{handler: handler.New(svc)}
}

func (m *Module) Name() string { return "messaging" }

func (m *Module) RegisterRoutes(rc *http.RouterContext) {
	conversations := rc.Protected.Group("/conversations")
	{
		conversations.POST("", m.handler.Start)
		conversations.GET("", m.handler.ListConversations)
		conversations.GET("/:id/messages", m.handler.ListMessages)
		conversations.POST("/:id/messages", m.handler.Send)
	}
}
