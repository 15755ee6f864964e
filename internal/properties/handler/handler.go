package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kejani_backend/internal/properties/service"
	"kejani_backend/internal/properties/transport"
	"kejani_backend/platform/httpkit"
)

type Handler struct {
	service *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	property, err := h.service.Create(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, property)
}

func (h *Handler) List(c *gin.Context) {
	var query transport.ListPropertiesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	var viewerID *uuid.UUID
	if identity := httpkit.GetIdentity(c); identity.IsAuthenticated() {
		id := identity.UserID()
		viewerID = &id
	}

	resp, err := h.service.List(c.Request.Context(), query, viewerID, c.ClientIP())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) GetBySlug(c *gin.Context) {
	var viewerID *uuid.UUID
	if identity := httpkit.GetIdentity(c); identity.IsAuthenticated() {
		id := identity.UserID()
		viewerID = &id
	}

	property, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"), viewerID, c.ClientIP(), c.Request.UserAgent())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, property)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	property, err := h.service.Update(c.Request.Context(), id, identity.UserID(), identity.IsManagement(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, property)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if httpkit.HandleError(c, h.service.Delete(c.Request.Context(), id, identity.UserID(), identity.IsManagement())) {
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) CreateLocation(c *gin.Context) {
	var req transport.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	location, err := h.service.CreateLocation(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, location)
}

func (h *Handler) ListLocations(c *gin.Context) {
	locations, err := h.service.ListLocations(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"locations": locations})
}

func (h *Handler) Save(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if httpkit.HandleError(c, h.service.Save(c.Request.Context(), identity.UserID(), id)) {
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) Unsave(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if httpkit.HandleError(c, h.service.Unsave(c.Request.Context(), identity.UserID(), id)) {
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) ListSaved(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	properties, err := h.service.ListSaved(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"properties": properties})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid property id", nil)
		return uuid.Nil, false
	}
	return id, true
}
