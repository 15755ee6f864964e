package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kejani_backend/internal/agents/service"
	"kejani_backend/internal/agents/transport"
	"kejani_backend/internal/verification"
	"kejani_backend/platform/httpkit"
)

type Handler struct {
	service      *service.Service
	verification *verification.Service
}

func New(svc *service.Service, verif *verification.Service) *Handler {
	return &Handler{service: svc, verification: verif}
}

func (h *Handler) CreateProfile(c *gin.Context) {
	var req transport.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	profile, err := h.service.CreateProfile(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, profile)
}

func (h *Handler) GetMyProfile(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	profile, err := h.service.GetMyProfile(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, profile)
}

func (h *Handler) UpdateMyProfile(c *gin.Context) {
	var req transport.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	profile, err := h.service.UpdateMyProfile(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, profile)
}

func (h *Handler) List(c *gin.Context) {
	var query transport.ListAgentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	resp, err := h.service.List(c.Request.Context(), query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) GetBySlug(c *gin.Context) {
	profile, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, profile)
}

func (h *Handler) SetVerified(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid profile id", nil)
		return
	}

	var req transport.SetVerifiedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if httpkit.HandleError(c, h.verification.SetAgentProfileVerified(c.Request.Context(), profileID, req.Verified)) {
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) AddReview(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid profile id", nil)
		return
	}

	var req transport.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	review, err := h.service.AddReview(c.Request.Context(), profileID, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, review)
}

func (h *Handler) ListReviews(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid profile id", nil)
		return
	}

	reviews, err := h.service.ListReviews(c.Request.Context(), profileID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"reviews": reviews})
}
