package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Security pipeline stages
const (
	StageRateLimit  = "rate_limit"
	StageCORS       = "cors"
	StageValidation = "validation"
	StagePipeline   = "pipeline"
)

// Metrics holds performance and security metrics for the application
type Metrics struct {
	// Request metrics
	TotalRequests      int64 `json:"total_requests"`
	SuccessfulRequests int64 `json:"successful_requests"`
	FailedRequests     int64 `json:"failed_requests"`

	// Response time metrics
	AverageResponseTime time.Duration `json:"average_response_time"`
	MinResponseTime     time.Duration `json:"min_response_time"`
	MaxResponseTime     time.Duration `json:"max_response_time"`

	// API key cache metrics
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`

	// Security pipeline decisions
	RequestsAllowed    int64 `json:"requests_allowed"`
	RateLimited        int64 `json:"rate_limited"`
	CORSRejected       int64 `json:"cors_rejected"`
	ValidationRejected int64 `json:"validation_rejected"`
	PipelineFailures   int64 `json:"pipeline_failures"`

	// Concurrency metrics
	ActiveRequests int64         `json:"active_requests"`
	MutexWaits     int64         `json:"mutex_waits"`
	TotalMutexWait time.Duration `json:"total_mutex_wait"`

	totalResponseTime time.Duration
	mutex             sync.RWMutex
}

// Recorder receives security pipeline decisions. *MetricsCollector and
// *Prometheus both implement it.
type Recorder interface {
	RecordDecision(stage string, allowed bool)
}

// MetricsCollector provides thread-safe metrics collection
type MetricsCollector struct {
	metrics   *Metrics
	startTime time.Time
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: &Metrics{
			MinResponseTime: time.Duration(^uint64(0) >> 1),
		},
		startTime: time.Now(),
	}
}

// RecordRequest records a new request
func (mc *MetricsCollector) RecordRequest() {
	atomic.AddInt64(&mc.metrics.TotalRequests, 1)
	atomic.AddInt64(&mc.metrics.ActiveRequests, 1)
}

// RecordRequestComplete records request completion
func (mc *MetricsCollector) RecordRequestComplete(duration time.Duration, success bool) {
	atomic.AddInt64(&mc.metrics.ActiveRequests, -1)

	if success {
		atomic.AddInt64(&mc.metrics.SuccessfulRequests, 1)
	} else {
		atomic.AddInt64(&mc.metrics.FailedRequests, 1)
	}

	mc.metrics.mutex.Lock()
	defer mc.metrics.mutex.Unlock()

	mc.metrics.totalResponseTime += duration

	if duration < mc.metrics.MinResponseTime {
		mc.metrics.MinResponseTime = duration
	}
	if duration > mc.metrics.MaxResponseTime {
		mc.metrics.MaxResponseTime = duration
	}

	completed := atomic.LoadInt64(&mc.metrics.SuccessfulRequests) + atomic.LoadInt64(&mc.metrics.FailedRequests)
	if completed > 0 {
		mc.metrics.AverageResponseTime = mc.metrics.totalResponseTime / time.Duration(completed)
	}
}

// RecordCacheHit records an API key cache hit
func (mc *MetricsCollector) RecordCacheHit() {
	atomic.AddInt64(&mc.metrics.CacheHits, 1)
}

// RecordCacheMiss records an API key cache miss
func (mc *MetricsCollector) RecordCacheMiss() {
	atomic.AddInt64(&mc.metrics.CacheMisses, 1)
}

// RecordDecision counts one security pipeline outcome. Allowed decisions
// are only counted for the final pipeline stage.
func (mc *MetricsCollector) RecordDecision(stage string, allowed bool) {
	if allowed {
		if stage == StagePipeline {
			atomic.AddInt64(&mc.metrics.RequestsAllowed, 1)
		}
		return
	}

	switch stage {
	case StageRateLimit:
		atomic.AddInt64(&mc.metrics.RateLimited, 1)
	case StageCORS:
		atomic.AddInt64(&mc.metrics.CORSRejected, 1)
	case StageValidation:
		atomic.AddInt64(&mc.metrics.ValidationRejected, 1)
	default:
		atomic.AddInt64(&mc.metrics.PipelineFailures, 1)
	}
}

// RecordMutexWait records a natural-key lock that had to wait
func (mc *MetricsCollector) RecordMutexWait(waited time.Duration) {
	atomic.AddInt64(&mc.metrics.MutexWaits, 1)

	mc.metrics.mutex.Lock()
	mc.metrics.TotalMutexWait += waited
	mc.metrics.mutex.Unlock()
}

// GetMetrics returns a copy of current metrics
func (mc *MetricsCollector) GetMetrics() *Metrics {
	mc.metrics.mutex.RLock()
	defer mc.metrics.mutex.RUnlock()

	return &Metrics{
		TotalRequests:       atomic.LoadInt64(&mc.metrics.TotalRequests),
		SuccessfulRequests:  atomic.LoadInt64(&mc.metrics.SuccessfulRequests),
		FailedRequests:      atomic.LoadInt64(&mc.metrics.FailedRequests),
		AverageResponseTime: mc.metrics.AverageResponseTime,
		MinResponseTime:     mc.metrics.MinResponseTime,
		MaxResponseTime:     mc.metrics.MaxResponseTime,
		CacheHits:           atomic.LoadInt64(&mc.metrics.CacheHits),
		CacheMisses:         atomic.LoadInt64(&mc.metrics.CacheMisses),
		RequestsAllowed:     atomic.LoadInt64(&mc.metrics.RequestsAllowed),
		RateLimited:         atomic.LoadInt64(&mc.metrics.RateLimited),
		CORSRejected:        atomic.LoadInt64(&mc.metrics.CORSRejected),
		ValidationRejected:  atomic.LoadInt64(&mc.metrics.ValidationRejected),
		PipelineFailures:    atomic.LoadInt64(&mc.metrics.PipelineFailures),
		ActiveRequests:      atomic.LoadInt64(&mc.metrics.ActiveRequests),
		MutexWaits:          atomic.LoadInt64(&mc.metrics.MutexWaits),
		TotalMutexWait:      mc.metrics.TotalMutexWait,
	}
}

// GetUptime returns the uptime since metrics collection started
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

// Reset resets all metrics
func (mc *MetricsCollector) Reset() {
	mc.metrics.mutex.Lock()
	defer mc.metrics.mutex.Unlock()

	for _, counter := range []*int64{
		&mc.metrics.TotalRequests,
		&mc.metrics.SuccessfulRequests,
		&mc.metrics.FailedRequests,
		&mc.metrics.CacheHits,
		&mc.metrics.CacheMisses,
		&mc.metrics.RequestsAllowed,
		&mc.metrics.RateLimited,
		&mc.metrics.CORSRejected,
		&mc.metrics.ValidationRejected,
		&mc.metrics.PipelineFailures,
		&mc.metrics.ActiveRequests,
		&mc.metrics.MutexWaits,
	} {
		atomic.StoreInt64(counter, 0)
	}

	mc.metrics.AverageResponseTime = 0
	mc.metrics.MinResponseTime = time.Duration(^uint64(0) >> 1)
	mc.metrics.MaxResponseTime = 0
	mc.metrics.TotalMutexWait = 0
	mc.metrics.totalResponseTime = 0

	mc.startTime = time.Now()
}

// GetCacheHitRatio returns the cache hit ratio as a percentage
func (mc *MetricsCollector) GetCacheHitRatio() float64 {
	hits := atomic.LoadInt64(&mc.metrics.CacheHits)
	misses := atomic.LoadInt64(&mc.metrics.CacheMisses)
	total := hits + misses

	if total == 0 {
		return 0.0
	}

	return float64(hits) / float64(total) * 100.0
}

// GetSuccessRate returns the success rate as a percentage
func (mc *MetricsCollector) GetSuccessRate() float64 {
	successful := atomic.LoadInt64(&mc.metrics.SuccessfulRequests)
	total := atomic.LoadInt64(&mc.metrics.TotalRequests)

	if total == 0 {
		return 0.0
	}

	return float64(successful) / float64(total) * 100.0
}

// GetRejectionRate returns the share of security decisions that rejected
// the request, as a percentage
func (mc *MetricsCollector) GetRejectionRate() float64 {
	allowed := atomic.LoadInt64(&mc.metrics.RequestsAllowed)
	rejected := atomic.LoadInt64(&mc.metrics.RateLimited) +
		atomic.LoadInt64(&mc.metrics.CORSRejected) +
		atomic.LoadInt64(&mc.metrics.ValidationRejected) +
		atomic.LoadInt64(&mc.metrics.PipelineFailures)

	if allowed+rejected == 0 {
		return 0.0
	}

	return float64(rejected) / float64(allowed+rejected) * 100.0
}
