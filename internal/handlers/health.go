package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/services"
)

const healthCheckTimeout = 5 * time.Second

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checkers        []services.HealthChecker
	dbHealthChecker *services.DatabaseHealthChecker
	version         string
}

// NewHealthHandler creates a new health handler. dbHealthChecker may be nil
// when the service runs without MongoDB.
func NewHealthHandler(version string, dbHealthChecker *services.DatabaseHealthChecker, checkers ...services.HealthChecker) *HealthHandler {
	if dbHealthChecker != nil {
		checkers = append(checkers, dbHealthChecker)
	}
	return &HealthHandler{
		checkers:        checkers,
		dbHealthChecker: dbHealthChecker,
		version:         version,
	}
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    services.HealthStatus            `json:"status"`
	Timestamp time.Time                        `json:"timestamp"`
	Services  map[string]*services.HealthCheck `json:"services"`
	Version   string                           `json:"version,omitempty"`
}

func (h *HealthHandler) runChecks(ctx context.Context) map[string]*services.HealthCheck {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	checks := make(map[string]*services.HealthCheck, len(h.checkers))
	for _, checker := range h.checkers {
		checks[checker.Name()] = checker.Check(ctx)
	}
	return checks
}

// GetHealth returns the overall health status
func (h *HealthHandler) GetHealth(c *gin.Context) {
	checks := h.runChecks(c.Request.Context())
	overallStatus := services.Aggregate(checks)

	// Degraded still answers 200
	statusCode := http.StatusOK
	if overallStatus == services.HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Services:  checks,
		Version:   h.version,
	})
}

// GetLiveness returns a simple liveness check
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// GetReadiness reports not_ready while any dependency is unhealthy
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	checks := h.runChecks(c.Request.Context())

	for name, check := range checks {
		if check.Status == services.HealthStatusUnhealthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "not_ready",
				"message":   name + " not available",
				"timestamp": time.Now(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// GetDatabaseHealth returns the connectivity, pool and index checks for MongoDB
func (h *HealthHandler) GetDatabaseHealth(c *gin.Context) {
	if h.dbHealthChecker == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "disabled",
			"message": "database checks are not configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := h.dbHealthChecker.GetDetailedHealth(ctx)
	statusCode := http.StatusOK
	if services.Aggregate(checks) == services.HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, checks)
}
