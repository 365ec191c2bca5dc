package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/security"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/httpsecurity"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/ratelimiter"
)

// CORSMiddleware answers preflight requests and adds the CORS response
// headers for allowed origins. Actual requests from other origins are passed
// through untouched so that the security pipeline can reject them with its
// JSON body.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := func(origin string) bool {
		return httpsecurity.ValidateCorsOrigin(origin, allowedOrigins)
	}

	handler := cors.New(cors.Config{
		AllowOriginFunc: allowed,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Authorization",
			security.CSRFHeader, "X-Correlation-ID",
		},
		ExposeHeaders: []string{
			ratelimiter.HeaderLimit, ratelimiter.HeaderRemaining,
			ratelimiter.HeaderReset, ratelimiter.HeaderRetryAfter,
			"X-Correlation-ID",
		},
		MaxAge: 12 * time.Hour,
	})

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && c.Request.Method != http.MethodOptions && !allowed(origin) {
			c.Next()
			return
		}
		handler(c)
	}
}
