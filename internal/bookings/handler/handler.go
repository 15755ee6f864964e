package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kejani_backend/internal/bookings/service"
	"kejani_backend/internal/bookings/transport"
	"kejani_backend/platform/httpkit"
)

type Handler struct {
	service *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	booking, err := h.service.Create(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, booking)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid booking id", nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	booking, err := h.service.Get(c.Request.Context(), id, identity.UserID(), identity.IsManagement())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, booking)
}

func (h *Handler) List(c *gin.Context) {
	var query transport.ListBookingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	resp, err := h.service.List(c.Request.Context(), identity.UserID(), identity.IsAgent(), query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid booking id", nil)
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	booking, err := h.service.UpdateStatus(c.Request.Context(), id, identity.UserID(), identity.IsManagement(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, booking)
}
