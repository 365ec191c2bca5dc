package handlers

import (
	"github.com/gin-gonic/gin"
)

// Router handles HTTP routing setup
type Router struct {
	walletHandler    *WalletHandler
	tokenHandler     *TokenHandler
	rateLimitHandler *RateLimitHandler
	securityHandler  *SecurityHandler
	healthHandler    *HealthHandler
	metricsHandler   *MetricsHandler
}

// NewRouter creates a new Router instance with all handlers
func NewRouter(
	walletHandler *WalletHandler,
	tokenHandler *TokenHandler,
	rateLimitHandler *RateLimitHandler,
	securityHandler *SecurityHandler,
	healthHandler *HealthHandler,
	metricsHandler *MetricsHandler,
) *Router {
	return &Router{
		walletHandler:    walletHandler,
		tokenHandler:     tokenHandler,
		rateLimitHandler: rateLimitHandler,
		securityHandler:  securityHandler,
		healthHandler:    healthHandler,
		metricsHandler:   metricsHandler,
	}
}

// SetupRoutes configures the /api routes behind the given middleware chain
func (r *Router) SetupRoutes(engine *gin.Engine, middleware ...gin.HandlerFunc) {
	api := engine.Group("/api")
	api.Use(middleware...)

	wallets := api.Group("/wallets")
	{
		wallets.POST("", r.walletHandler.Create)
		wallets.GET("", r.walletHandler.List)
		wallets.GET("/by-key/:publicKey", r.walletHandler.GetByPublicKey)
		wallets.GET("/by-owner/:ownerId", r.walletHandler.ListByOwner)
		wallets.GET("/:id", r.walletHandler.Get)
		wallets.PUT("/:id", r.walletHandler.Update)
		wallets.DELETE("/:id", r.walletHandler.Delete)
	}

	tokens := api.Group("/tokens")
	{
		tokens.POST("", r.tokenHandler.Create)
		tokens.GET("", r.tokenHandler.List)
		tokens.GET("/by-address/:address", r.tokenHandler.GetByAddress)
		tokens.GET("/:id", r.tokenHandler.Get)
		tokens.PUT("/:id", r.tokenHandler.Update)
		tokens.DELETE("/:id", r.tokenHandler.Delete)
	}

	security := api.Group("/security")
	{
		security.POST("/password-check", r.securityHandler.CheckPassword)
		security.GET("/csrf-token", r.securityHandler.CSRFToken)
	}
}

// SetupAdminRoutes configures the operator routes behind the given middleware
// chain, which must include an admin credential check
func (r *Router) SetupAdminRoutes(engine *gin.Engine, middleware ...gin.HandlerFunc) {
	admin := engine.Group("/api/admin")
	admin.Use(middleware...)

	rateLimits := admin.Group("/rate-limits")
	{
		rateLimits.GET("/:clientId", r.rateLimitHandler.Status)
		rateLimits.DELETE("/:operation/:clientId", r.rateLimitHandler.Reset)
	}
}

// SetupHealthRoutes configures health check routes
func (r *Router) SetupHealthRoutes(engine *gin.Engine) {
	health := engine.Group("/health")
	{
		health.GET("", r.healthHandler.GetHealth)            // Overall health
		health.GET("/live", r.healthHandler.GetLiveness)     // Liveness probe
		health.GET("/ready", r.healthHandler.GetReadiness)   // Readiness probe
		health.GET("/db", r.healthHandler.GetDatabaseHealth) // Database health
	}
}

// SetupMetricsRoutes configures the monitoring endpoints
func (r *Router) SetupMetricsRoutes(engine *gin.Engine) {
	engine.GET("/metrics", r.metricsHandler.GetMetrics)
	engine.GET("/metrics/prometheus", r.metricsHandler.GetPrometheus)
}
