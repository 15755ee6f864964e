// Package auth implements user accounts, JWT authentication and the
// management actions on users.
package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"kejani_backend/internal/auth/handler"
	"kejani_backend/internal/auth/repository"
	"kejani_backend/internal/auth/service"
	"kejani_backend/internal/auth/token"
	"kejani_backend/internal/events"
	"kejani_backend/internal/http"
	"kejani_backend/internal/verification"
	"kejani_backend/platform/config"
	"kejani_backend/platform/logger"
)

type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, verif *verification.Service, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	issuer := token.NewIssuer(cfg.GetJWTAccessSecret(), cfg.GetJWTRefreshSecret(), cfg.GetAccessTokenTTL(), cfg.GetRefreshTokenTTL())
	svc := service.New(repo, issuer, bus, log)

	return &Module{
		handler: handler.New(svc, verif),
		repo:    repo,
		service: svc,
	}
}

func (m *Module) Name() string { return "auth" }

// Repository exposes the user store for cross-module wiring, most notably
// the verification sync.
func (m *Module) Repository() *repository.Repository { return m.repo }

func (m *Module) Service() *service.Service { return m.service }

func (m *Module) RegisterRoutes(rc *http.RouterContext) {
	public := rc.V1.Group("/auth")
	public.Use(rc.AuthRateLimiter.RateLimit())
	{
		public.POST("/register", m.handler.Register)
		public.POST("/login", m.handler.Login)
		public.POST("/refresh", m.handler.Refresh)
	}

	me := rc.Protected.Group("/auth")
	{
		me.GET("/me", m.handler.Me)
		me.PATCH("/me", m.handler.UpdateProfile)
		me.POST("/me/password", m.handler.ChangePassword)
	}

	admin := rc.Management.Group("/users")
	{
		admin.GET("", m.handler.ListUsers)
		admin.POST("/:id/verify", m.handler.SetVerified)
		admin.POST("/:id/activate", m.handler.SetActive)
	}
}
