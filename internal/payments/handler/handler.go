package handler

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kejani_backend/internal/payments/service"
	"kejani_backend/internal/payments/transport"
	"kejani_backend/platform/httpkit"
)

type Handler struct {
	service        *service.Service
	callbackSecret string
}

func New(svc *service.Service, callbackSecret string) *Handler {
	return &Handler{service: svc, callbackSecret: callbackSecret}
}

func (h *Handler) ListPlans(c *gin.Context) {
	resp, err := h.service.ListPlans(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) CreatePlan(c *gin.Context) {
	var req transport.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	plan, err := h.service.CreatePlan(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, plan)
}

func (h *Handler) SetPlanActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid plan id", nil)
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if httpkit.HandleError(c, h.service.SetPlanActive(c.Request.Context(), id, *req.Active)) {
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) GetMySubscription(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	resp, err := h.service.GetMySubscription(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) CancelMySubscription(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if httpkit.HandleError(c, h.service.CancelMySubscription(c.Request.Context(), identity.UserID())) {
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) Initiate(c *gin.Context) {
	var req transport.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	txn, err := h.service.Initiate(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, txn)
}

func (h *Handler) ListMyTransactions(c *gin.Context) {
	var query transport.ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	resp, err := h.service.ListMyTransactions(c.Request.Context(), identity.UserID(), query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// Callback receives Daraja STK results. The gateway authenticates with a
// shared secret in the path; Daraja expects a ResultCode acknowledgement
// body even on failure.
func (h *Handler) Callback(c *gin.Context) {
	if subtle.ConstantTimeCompare([]byte(c.Param("secret")), []byte(h.callbackSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, transport.MpesaAck{ResultCode: 1, ResultDesc: "Unauthorized"})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, transport.MpesaAck{ResultCode: 1, ResultDesc: "Invalid body"})
		return
	}

	var callback transport.MpesaCallback
	if err := json.Unmarshal(payload, &callback); err != nil {
		c.JSON(http.StatusBadRequest, transport.MpesaAck{ResultCode: 1, ResultDesc: "Invalid payload"})
		return
	}

	if err := h.service.HandleCallback(c.Request.Context(), payload, callback); err != nil {
		c.JSON(http.StatusOK, transport.MpesaAck{ResultCode: 1, ResultDesc: "Failed"})
		return
	}
	c.JSON(http.StatusOK, transport.MpesaAck{ResultCode: 0, ResultDesc: "Success"})
}
