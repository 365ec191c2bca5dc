package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/middleware"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/services"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
)

// WalletHandler handles wallet-related HTTP requests
type WalletHandler struct {
	walletService services.WalletServiceInterface
}

// NewWalletHandler creates a new WalletHandler instance
func NewWalletHandler(walletService services.WalletServiceInterface) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// WalletListResponse wraps a list of wallets
type WalletListResponse struct {
	Wallets []*models.Wallet `json:"wallets"`
	Count   int              `json:"count"`
}

// Create handles POST /api/wallets. The owner defaults to the caller's API key.
func (h *WalletHandler) Create(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var input models.WalletInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Warn("Invalid JSON in wallet request", zap.Error(err))
		models.HandleError(c, malformedJSON(err), log)
		return
	}

	if input.OwnerID == "" {
		input.OwnerID = c.GetString(middleware.ContextKeyAPIKeyID)
	}

	wallet, err := h.walletService.Create(c.Request.Context(), input)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	log.Info("Wallet created", zap.String("wallet_id", wallet.ID))
	c.JSON(http.StatusCreated, wallet)
}

// List handles GET /api/wallets with optional name, publicKey, isActive and
// ownerId filters
func (h *WalletHandler) List(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var filter models.WalletFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		models.HandleError(c, models.NewValidationError("Invalid query parameters", err.Error()), log)
		return
	}

	wallets, err := h.walletService.FindAll(c.Request.Context(), filter)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, WalletListResponse{Wallets: wallets, Count: len(wallets)})
}

// Get handles GET /api/wallets/:id
func (h *WalletHandler) Get(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	wallet, err := h.walletService.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		models.HandleError(c, err, log)
		return
	}
	if wallet == nil {
		models.HandleError(c, models.NewNotFoundError("Wallet"), log)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// Update handles PUT /api/wallets/:id
func (h *WalletHandler) Update(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var patch models.WalletPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		models.HandleError(c, malformedJSON(err), log)
		return
	}

	wallet, err := h.walletService.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// Delete handles DELETE /api/wallets/:id
func (h *WalletHandler) Delete(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	deleted, err := h.walletService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		models.HandleError(c, err, log)
		return
	}
	if !deleted {
		models.HandleError(c, models.NewNotFoundError("Wallet"), log)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetByPublicKey handles GET /api/wallets/by-key/:publicKey
func (h *WalletHandler) GetByPublicKey(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	wallet, err := h.walletService.FindByPublicKey(c.Request.Context(), c.Param("publicKey"))
	if err != nil {
		models.HandleError(c, err, log)
		return
	}
	if wallet == nil {
		models.HandleError(c, models.NewNotFoundError("Wallet"), log)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// ListByOwner handles GET /api/wallets/by-owner/:ownerId
func (h *WalletHandler) ListByOwner(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	wallets, err := h.walletService.FindByUserID(c.Request.Context(), c.Param("ownerId"))
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, WalletListResponse{Wallets: wallets, Count: len(wallets)})
}
