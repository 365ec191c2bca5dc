package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/services"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
)

// TokenHandler handles token registry requests
type TokenHandler struct {
	tokenService services.TokenServiceInterface
}

// NewTokenHandler creates a new TokenHandler instance
func NewTokenHandler(tokenService services.TokenServiceInterface) *TokenHandler {
	return &TokenHandler{tokenService: tokenService}
}

// TokenListResponse wraps a list of tokens
type TokenListResponse struct {
	Tokens []*models.Token `json:"tokens"`
	Count  int             `json:"count"`
}

func malformedJSON(err error) *models.AppError {
	return models.NewAppErrorWithDetails(models.ErrorCodeMalformedJSON, "Invalid JSON format", err.Error())
}

// Create handles POST /api/tokens
func (h *TokenHandler) Create(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var input models.TokenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		models.HandleError(c, malformedJSON(err), log)
		return
	}

	token, err := h.tokenService.Create(c.Request.Context(), input)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	log.Info("Token registered",
		zap.String("token_id", token.ID),
		zap.String("symbol", token.Symbol),
	)
	c.JSON(http.StatusCreated, token)
}

// List handles GET /api/tokens
func (h *TokenHandler) List(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var filter models.TokenFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		models.HandleError(c, models.NewValidationError("Invalid query parameters", err.Error()), log)
		return
	}

	tokens, err := h.tokenService.FindAll(c.Request.Context(), filter)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, TokenListResponse{Tokens: tokens, Count: len(tokens)})
}

// Get handles GET /api/tokens/:id
func (h *TokenHandler) Get(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	token, err := h.tokenService.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		models.HandleError(c, err, log)
		return
	}
	if token == nil {
		models.HandleError(c, models.NewNotFoundError("Token"), log)
		return
	}

	c.JSON(http.StatusOK, token)
}

// Update handles PUT /api/tokens/:id
func (h *TokenHandler) Update(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var patch models.TokenPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		models.HandleError(c, malformedJSON(err), log)
		return
	}

	token, err := h.tokenService.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, token)
}

// Delete handles DELETE /api/tokens/:id
func (h *TokenHandler) Delete(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	deleted, err := h.tokenService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		models.HandleError(c, err, log)
		return
	}
	if !deleted {
		models.HandleError(c, models.NewNotFoundError("Token"), log)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetByAddress handles GET /api/tokens/by-address/:address
func (h *TokenHandler) GetByAddress(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	token, err := h.tokenService.FindByAddress(c.Request.Context(), c.Param("address"))
	if err != nil {
		models.HandleError(c, err, log)
		return
	}
	if token == nil {
		models.HandleError(c, models.NewNotFoundError("Token"), log)
		return
	}

	c.JSON(http.StatusOK, token)
}
