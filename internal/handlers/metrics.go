package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/metrics"
)

// MetricsHandler exposes the in-process collector as JSON and the
// Prometheus registry in text format
type MetricsHandler struct {
	collector   *metrics.MetricsCollector
	prom        *metrics.Prometheus
	rateEntries func() int
	service     string
	version     string
}

// NewMetricsHandler creates a new MetricsHandler. prom and rateEntries may be nil.
func NewMetricsHandler(service, version string, collector *metrics.MetricsCollector, prom *metrics.Prometheus, rateEntries func() int) *MetricsHandler {
	return &MetricsHandler{
		collector:   collector,
		prom:        prom,
		rateEntries: rateEntries,
		service:     service,
		version:     version,
	}
}

// GetMetrics handles GET /metrics
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	performance := gin.H{
		"metrics":         h.collector.GetMetrics(),
		"uptime":          h.collector.GetUptime().String(),
		"success_rate":    h.collector.GetSuccessRate(),
		"cache_hit_ratio": h.collector.GetCacheHitRatio(),
		"rejection_rate":  h.collector.GetRejectionRate(),
	}
	if h.rateEntries != nil {
		performance["rate_limit_entries"] = h.rateEntries()
	}

	c.JSON(http.StatusOK, gin.H{
		"service":     h.service,
		"version":     h.version,
		"performance": performance,
	})
}

// GetPrometheus handles GET /metrics/prometheus
func (h *MetricsHandler) GetPrometheus(c *gin.Context) {
	if h.prom == nil {
		c.Status(http.StatusNotFound)
		return
	}
	h.prom.Handler().ServeHTTP(c.Writer, c.Request)
}
