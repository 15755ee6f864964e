package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kejani_backend/internal/analytics/service"
	"kejani_backend/platform/httpkit"
)

type Handler struct {
	service *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// Dashboard serves a role-shaped overview: agents see their own portfolio,
// management sees platform totals, everyone else sees their own activity.
func (h *Handler) Dashboard(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	ctx := c.Request.Context()

	switch {
	case identity.IsManagement():
		resp, err := h.service.PlatformDashboard(ctx)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, resp)
	case identity.IsAgent():
		resp, err := h.service.AgentDashboard(ctx, identity.UserID())
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, resp)
	default:
		resp, err := h.service.ClientDashboard(ctx, identity.UserID())
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, resp)
	}
}

func (h *Handler) PropertyAnalytics(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid property id", nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	resp, svcErr := h.service.PropertyAnalytics(c.Request.Context(), id, identity.UserID(), identity.IsManagement())
	if httpkit.HandleError(c, svcErr) {
		return
	}
	httpkit.OK(c, resp)
}
