package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/security"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/httpsecurity"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
)

// ClientID resolves the rate-limit and CSRF identity of the current request
func ClientID(c *gin.Context) string {
	return security.ClientID(&httpsecurity.Request{
		IP:     c.ClientIP(),
		UserID: c.GetString(ContextKeyAPIKeyID),
	})
}

// CSRFMiddleware requires a token issued by store on every state-changing
// request
func CSRFMiddleware(store *security.CSRFStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if !store.Validate(ClientID(c), c.GetHeader(security.CSRFHeader)) {
			log := logger.GetLogger().WithContext(c.Request.Context())
			log.Warn("CSRF token rejected",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			)
			models.HandleError(c, models.NewAppError(models.ErrorCodeCSRFInvalid, "Missing or invalid CSRF token"), log)
			return
		}

		c.Next()
	}
}
