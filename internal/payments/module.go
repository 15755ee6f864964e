// Package payments implements payment plans, agent subscriptions and M-Pesa
// transaction records resolved by the gateway callback.
package payments

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"kejani_backend/internal/events"
	"kejani_backend/internal/http"
	"kejani_backend/internal/payments/handler"
	"kejani_backend/internal/payments/repository"
	"kejani_backend/internal/payments/service"
	"kejani_backend/platform/config"
	"kejani_backend/platform/logger"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, cfg config.MpesaConfig, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)

	return &Module{
		handler: handler.New(svc, cfg.GetMpesaCallbackSecret()),
		service: svc,
	}
}

func (m *Module) Name() string { return "payments" }

// Service exposes usage counters and the expiry sweep to other modules and
// the background worker.
func (m *Module) Service() *service.Service { return m.service }

func (m *Module) RegisterRoutes(rc *http.RouterContext) {
	rc.V1.GET("/payment-plans", m.handler.ListPlans)
	rc.V1.POST("/webhooks/mpesa/:secret", m.handler.Callback)

	rc.Management.POST("/payment-plans", m.handler.CreatePlan)
	rc.Management.PATCH("/payment-plans/:id/active", m.handler.SetPlanActive)

	rc.Agent.GET("/subscription", m.handler.GetMySubscription)
	rc.Agent.DELETE("/subscription", m.handler.CancelMySubscription)

	payments := rc.Protected.Group("/payments")
	{
		payments.POST("/mpesa/initiate", m.handler.Initiate)
		payments.GET("/transactions", m.handler.ListMyTransactions)
	}
}
