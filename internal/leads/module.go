// Package leads implements the CRM side of the marketplace: lead capture,
// engagement tracking, scoring and agent assignment.
package leads

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"kejani_backend/internal/events"
	"kejani_backend/internal/http"
	"kejani_backend/internal/leads/assignment"
	"kejani_backend/internal/leads/handler"
	"kejani_backend/internal/leads/repository"
	"kejani_backend/internal/leads/scoring"
	"kejani_backend/internal/leads/service"
	"kejani_backend/platform/logger"
)

type Module struct {
	handler    *handler.Handler
	service    *service.Service
	scorer     *scoring.Service
	subscriber *subscriber
}

func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	scorer := scoring.NewService(engagementReader{repo}, repo, log)
	assigner := assignment.NewService(loadLister{repo})
	svc := service.New(repo, scorer, assigner, bus, log)

	return &Module{
		handler:    handler.New(svc),
		service:    svc,
		scorer:     scorer,
		subscriber: &subscriber{leads: repo, engagement: svc, log: log},
	}
}

func (m *Module) Name() string { return "leads" }

// RegisterHandlers subscribes the module to the registration, browsing and
// booking events it turns into lead links and engagement history.
func (m *Module) RegisterHandlers(bus events.Bus) {
	m.subscriber.register(bus)
}

// Service exposes the lead operations other modules consume: webhook capture,
// booking-driven engagement and the WhatsApp bridge.
func (m *Module) Service() *service.Service { return m.service }

// Scorer exposes score recomputation for modules that record engagement
// outside this package.
func (m *Module) Scorer() *scoring.Service { return m.scorer }

func (m *Module) RegisterRoutes(rc *http.RouterContext) {
	leads := rc.Agent.Group("/leads")
	{
		leads.POST("", m.handler.Create)
		leads.GET("", m.handler.List)
		leads.GET("/stats", m.handler.PipelineStats)
		leads.GET("/:id", m.handler.Get)
		leads.PATCH("/:id", m.handler.Update)
		leads.PATCH("/:id/status", m.handler.UpdateStatus)
		leads.POST("/:id/assign", m.handler.Assign)
		leads.POST("/:id/auto-assign", m.handler.AutoAssign)

		leads.POST("/:id/interactions", m.handler.CreateInteraction)
		leads.GET("/:id/interactions", m.handler.ListInteractions)
		leads.POST("/:id/activities", m.handler.CreateActivity)
		leads.GET("/:id/activities", m.handler.ListActivities)
		leads.GET("/:id/whatsapp-messages", m.handler.ListWhatsAppMessages)

		leads.POST("/:id/tasks", m.handler.CreateTask)
		leads.GET("/:id/tasks", m.handler.ListTasks)
	}

	tasks := rc.Agent.Group("/lead-tasks")
	{
		tasks.POST("/:taskId/complete", m.handler.CompleteTask)
		tasks.DELETE("/:taskId", m.handler.DeleteTask)
	}
}

// engagementReader adapts the repository's snapshot query to the scorer's
// narrower view.
type engagementReader struct {
	repo *repository.Repository
}

func (r engagementReader) CountEngagement(ctx context.Context, leadID uuid.UUID) (scoring.Counts, string, error) {
	counts, err := r.repo.CountEngagement(ctx, leadID)
	if err != nil {
		return scoring.Counts{}, "", err
	}
	return scoring.Counts{
		Interactions:     counts.Interactions,
		WhatsAppMessages: counts.WhatsAppMessages,
		PropertyViewings: counts.PropertyViewings,
	}, counts.Status, nil
}

// loadLister adapts the repository's agent-load query for the assignment
// policy.
type loadLister struct {
	repo *repository.Repository
}

func (l loadLister) ListAgentLoads(ctx context.Context) ([]assignment.AgentLoad, error) {
	loads, err := l.repo.ListAgentLoads(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]assignment.AgentLoad, 0, len(loads))
	for _, load := range loads {
		out = append(out, assignment.AgentLoad{AgentID: load.AgentID, OpenLeads: load.OpenLeads})
	}
	return out, nil
}
