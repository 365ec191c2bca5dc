package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/metrics"
)

// MetricsMiddleware feeds request counts and latency to the in-process
// collector and, when set, to Prometheus
func MetricsMiddleware(collector *metrics.MetricsCollector, prom *metrics.Prometheus) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		collector.RecordRequest()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		collector.RecordRequestComplete(duration, status < 400)

		if prom != nil {
			prom.RecordHTTP(c.Request.Method, c.FullPath(), status, duration)
		}
	}
}
