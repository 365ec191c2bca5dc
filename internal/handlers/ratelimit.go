package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/ratelimiter"
)

// RateLimitStore is the subset of the rate limiter exposed over HTTP
type RateLimitStore interface {
	Status(clientID string) map[string]ratelimiter.Status
	Reset(operation, clientID string)
	Rule(operation string) (ratelimiter.Rule, bool)
}

// RateLimitHandler reports and resets per-client quotas
type RateLimitHandler struct {
	limiter RateLimitStore
}

// NewRateLimitHandler creates a new RateLimitHandler instance
func NewRateLimitHandler(limiter RateLimitStore) *RateLimitHandler {
	return &RateLimitHandler{limiter: limiter}
}

// RateLimitStatusResponse lists every operation's counter for one client
type RateLimitStatusResponse struct {
	ClientID   string                        `json:"clientId"`
	Operations map[string]ratelimiter.Status `json:"operations"`
}

// Status handles GET /api/admin/rate-limits/:clientId
func (h *RateLimitHandler) Status(c *gin.Context) {
	clientID := c.Param("clientId")

	c.JSON(http.StatusOK, RateLimitStatusResponse{
		ClientID:   clientID,
		Operations: h.limiter.Status(clientID),
	})
}

// Reset handles DELETE /api/admin/rate-limits/:operation/:clientId
func (h *RateLimitHandler) Reset(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	operation := strings.ToUpper(c.Param("operation"))
	clientID := c.Param("clientId")

	if _, ok := h.limiter.Rule(operation); !ok {
		models.HandleError(c, models.NewNotFoundError("Rate limit operation"), log)
		return
	}

	h.limiter.Reset(operation, clientID)

	log.Info("Rate limit reset",
		zap.String("operation", operation),
		zap.String("client_id", clientID),
	)
	c.Status(http.StatusNoContent)
}
