package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
)

// AdminKeyHeader carries the operator credential for the admin routes
const AdminKeyHeader = "X-Admin-Key"

// AdminMiddleware admits only requests whose X-Admin-Key header matches
// adminKey. An API key alone is not enough. An empty adminKey rejects
// everything.
func AdminMiddleware(adminKey string) gin.HandlerFunc {
	expected := []byte(adminKey)

	return func(c *gin.Context) {
		log := logger.GetLogger().WithContext(c.Request.Context())

		provided := c.GetHeader(AdminKeyHeader)
		if provided == "" {
			log.Warn("Missing admin key",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			models.HandleError(c, models.NewAppErrorWithDetails(
				models.ErrorCodeMissingAdminKey,
				"Admin key is required",
				"Provide admin key in "+AdminKeyHeader+" header",
			), log)
			return
		}

		if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			log.Warn("Invalid admin key",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			models.HandleError(c, models.NewAppError(models.ErrorCodeInvalidAdminKey, "Invalid admin key"), log)
			return
		}

		c.Next()
	}
}
