package webhook

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "kejani_backend/internal/http"
	"kejani_backend/platform/config"
	"kejani_backend/platform/logger"
)

type Module struct {
	handler *Handler
	repo    *Repository
}

func NewModule(pool *pgxpool.Pool, intake LeadIntake, cfg config.WhatsAppConfig, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, intake, log)

	return &Module{
		handler: NewHandler(service, repo, cfg.GetWhatsAppWebhookSecret()),
		repo:    repo,
	}
}

func (m *Module) Name() string { return "webhook" }

func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	// Website form capture: API key auth, no JWT.
	forms := rc.V1.Group("/webhooks/forms")
	forms.Use(APIKeyAuthMiddleware(m.repo))
	forms.POST("", m.handler.HandleFormSubmission)

	// Gateway callback: shared secret in the path.
	rc.V1.POST("/webhooks/whatsapp/:secret", m.handler.HandleWhatsAppInbound)

	keys := rc.Management.Group("/webhooks/keys")
	keys.POST("", m.handler.HandleCreateKey)
	keys.GET("", m.handler.HandleListKeys)
	keys.DELETE("/:keyId", m.handler.HandleRevokeKey)
}
