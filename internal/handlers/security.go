package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/middleware"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/security"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/services"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/sanitizer"
)

// SecurityHandler serves the password policy check and CSRF tokens
type SecurityHandler struct {
	audit  *services.AuditLogger
	csrf   *security.CSRFStore
	policy sanitizer.PasswordPolicy
}

// NewSecurityHandler creates a new SecurityHandler instance
func NewSecurityHandler(audit *services.AuditLogger, csrf *security.CSRFStore, policy sanitizer.PasswordPolicy) *SecurityHandler {
	return &SecurityHandler{audit: audit, csrf: csrf, policy: policy}
}

// PasswordCheckRequest carries the candidate master password
type PasswordCheckRequest struct {
	Password string `json:"password"`
}

// CSRFTokenResponse tells the client which header to echo the token in
type CSRFTokenResponse struct {
	Token  string `json:"token"`
	Header string `json:"header"`
}

// CheckPassword handles POST /api/security/password-check. The password is
// evaluated and discarded; only the outcome is audited.
func (h *SecurityHandler) CheckPassword(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var req PasswordCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.HandleError(c, malformedJSON(err), log)
		return
	}
	if req.Password == "" {
		models.HandleError(c, models.NewValidationError("Validation failed", "password is required"), log)
		return
	}

	check := sanitizer.ValidateMasterPassword(req.Password, h.policy)

	h.audit.Log(c.Request.Context(), services.SecurityEvent{
		Type:    services.EventPasswordCheck,
		UserID:  c.GetString(middleware.ContextKeyAPIKeyID),
		Success: check.IsSecure,
		Metadata: map[string]interface{}{
			"warnings": len(check.Warnings),
		},
	})

	c.JSON(http.StatusOK, check)
}

// CSRFToken handles GET /api/security/csrf-token
func (h *SecurityHandler) CSRFToken(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	token, err := h.csrf.Issue(middleware.ClientID(c))
	if err != nil {
		models.HandleError(c, models.NewAppErrorWithCause(models.ErrorCodeInternalError, "Failed to issue CSRF token", err), log)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, CSRFTokenResponse{Token: token, Header: security.CSRFHeader})
}
