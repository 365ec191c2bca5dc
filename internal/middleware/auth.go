package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/services"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
)

// Keys set on the gin context by AuthMiddleware
const (
	ContextKeyAPIKey     = "api_key"
	ContextKeyAPIKeyID   = "api_key_id"
	ContextKeyAPIKeyName = "api_key_name"
)

// AuthMiddleware requires a valid API key in the Authorization header, either
// bare or as "Bearer <key>". The key's id becomes the request's user id.
func AuthMiddleware(authService services.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLogger().WithContext(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Missing API key in Authorization header",
				zap.String("client_ip", c.ClientIP()),
				zap.String("user_agent", c.Request.UserAgent()),
			)
			models.HandleError(c, models.NewAppErrorWithDetails(
				models.ErrorCodeMissingAPIKey,
				"API key is required",
				"Provide API key in Authorization header",
			), log)
			return
		}

		apiKey := parseAPIKey(authHeader)
		if apiKey == "" {
			models.HandleError(c, models.NewAppErrorWithDetails(
				models.ErrorCodeInvalidAPIKey,
				"Invalid API key format",
				"API key cannot be empty",
			), log)
			return
		}

		validatedKey, err := authService.ValidateAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			log.Warn("API key validation failed",
				zap.Error(err),
				zap.String("client_ip", c.ClientIP()),
			)
			models.HandleError(c, authError(err), log)
			return
		}

		keyID := validatedKey.OwnerID()
		c.Set(ContextKeyAPIKey, validatedKey)
		c.Set(ContextKeyAPIKeyID, keyID)
		c.Set(ContextKeyAPIKeyName, validatedKey.Name)

		c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), keyID))

		log.Debug("Authentication successful",
			zap.String("api_key_id", keyID),
			zap.String("api_key_name", validatedKey.Name),
		)

		c.Next()
	}
}

// parseAPIKey accepts "Bearer <key>", "Bearer<key>" and "<key>"
func parseAPIKey(header string) string {
	key := strings.TrimSpace(header)
	if strings.HasPrefix(strings.ToLower(key), "bearer") {
		key = strings.TrimSpace(key[len("bearer"):])
	}
	return key
}

func authError(err error) *models.AppError {
	switch {
	case errors.Is(err, services.ErrInvalidAPIKey):
		return models.NewAppError(models.ErrorCodeInvalidAPIKey, "Invalid API key")
	case errors.Is(err, services.ErrInactiveAPIKey):
		return models.NewAppError(models.ErrorCodeInactiveAPIKey, "API key is inactive")
	case errors.Is(err, services.ErrDatabaseError):
		return models.NewAppErrorWithCause(models.ErrorCodeDatabaseError, "Authentication service unavailable", err)
	default:
		return models.NewAppErrorWithCause(models.ErrorCodeInvalidAPIKey, "Authentication failed", err)
	}
}
