package webhook

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kejani_backend/platform/httpkit"
)

type Handler struct {
	service       *Service
	repo          *Repository
	webhookSecret string
}

func NewHandler(service *Service, repo *Repository, webhookSecret string) *Handler {
	return &Handler{service: service, repo: repo, webhookSecret: webhookSecret}
}

// HandleFormSubmission accepts a flat JSON object or form-encoded body from
// an external website and captures it as a lead.
func (h *Handler) HandleFormSubmission(c *gin.Context) {
	fields := map[string]string{}

	switch {
	case c.ContentType() == "application/json":
		if err := c.ShouldBindJSON(&fields); err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	default:
		if err := c.Request.ParseForm(); err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid form body", err.Error())
			return
		}
		for key, values := range c.Request.PostForm {
			if len(values) > 0 {
				fields[key] = values[0]
			}
		}
	}

	resp, err := h.service.ProcessFormSubmission(c.Request.Context(), FormSubmission{
		Fields:       fields,
		SourceDomain: c.GetHeader("Origin"),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, resp)
}

// HandleWhatsAppInbound receives message callbacks from the WhatsApp gateway.
// The gateway authenticates via a shared secret in the path.
func (h *Handler) HandleWhatsAppInbound(c *gin.Context) {
	if h.webhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(c.Param("secret")), []byte(h.webhookSecret)) != 1 {
		httpkit.Error(c, http.StatusUnauthorized, "invalid webhook secret", nil)
		return
	}

	var msg InboundWhatsAppMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	resp, err := h.service.ProcessWhatsAppInbound(c.Request.Context(), msg)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

type createKeyRequest struct {
	Name           string   `json:"name" binding:"required,max=100"`
	AllowedDomains []string `json:"allowedDomains" binding:"omitempty,dive,max=255"`
}

type keyResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	KeyPrefix      string    `json:"keyPrefix"`
	AllowedDomains []string  `json:"allowedDomains"`
	IsActive       bool      `json:"isActive"`
	Key            string    `json:"key,omitempty"`
}

func (h *Handler) HandleCreateKey(c *gin.Context) {
	var req createKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to generate key", nil)
		return
	}

	key, err := h.repo.CreateKey(c.Request.Context(), req.Name, hash, prefix, req.AllowedDomains)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to store key", nil)
		return
	}

	// The plaintext key is returned exactly once.
	httpkit.Created(c, keyResponse{
		ID:             key.ID,
		Name:           key.Name,
		KeyPrefix:      key.KeyPrefix,
		AllowedDomains: key.AllowedDomains,
		IsActive:       key.IsActive,
		Key:            plaintext,
	})
}

func (h *Handler) HandleListKeys(c *gin.Context) {
	keys, err := h.repo.ListKeys(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list keys", nil)
		return
	}

	out := make([]keyResponse, 0, len(keys))
	for _, key := range keys {
		out = append(out, keyResponse{
			ID:             key.ID,
			Name:           key.Name,
			KeyPrefix:      key.KeyPrefix,
			AllowedDomains: key.AllowedDomains,
			IsActive:       key.IsActive,
		})
	}
	httpkit.OK(c, gin.H{"keys": out})
}

func (h *Handler) HandleRevokeKey(c *gin.Context) {
	id, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid key id", nil)
		return
	}

	if err := h.repo.RevokeKey(c.Request.Context(), id); err != nil {
		if err == ErrAPIKeyNotFound {
			httpkit.Error(c, http.StatusNotFound, "key not found", nil)
			return
		}
		httpkit.Error(c, http.StatusInternalServerError, "failed to revoke key", nil)
		return
	}
	httpkit.NoContent(c)
}
