package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "solana_wallet"

// Prometheus exposes security and HTTP metrics on its own registry
type Prometheus struct {
	Registry *prometheus.Registry

	decisions   *prometheus.CounterVec
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	mutexWaits  prometheus.Histogram
	rateEntries prometheus.GaugeFunc
}

// NewPrometheus registers the collectors. trackedEntries, when non-nil,
// reports the number of live rate limit entries.
func NewPrometheus(trackedEntries func() int) *Prometheus {
	p := &Prometheus{
		Registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "security",
				Name:      "decisions_total",
				Help:      "Security pipeline decisions by stage and outcome.",
			},
			[]string{"stage", "outcome"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"method", "route"},
		),
		mutexWaits: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "crud",
				Name:      "natural_key_wait_seconds",
				Help:      "Time spent waiting for a natural-key lock.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10),
			},
		),
	}

	p.Registry.MustRegister(
		p.decisions,
		p.requests,
		p.duration,
		p.mutexWaits,
		prometheus.NewGoCollector(),
	)

	if trackedEntries != nil {
		p.rateEntries = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "entries",
				Help:      "Live rate limit entries.",
			},
			func() float64 { return float64(trackedEntries()) },
		)
		p.Registry.MustRegister(p.rateEntries)
	}

	return p
}

// RecordDecision implements Recorder
func (p *Prometheus) RecordDecision(stage string, allowed bool) {
	outcome := "rejected"
	if allowed {
		outcome = "allowed"
	}
	p.decisions.WithLabelValues(stage, outcome).Inc()
}

// RecordHTTP observes one completed HTTP request
func (p *Prometheus) RecordHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	p.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordMutexWait observes a natural-key lock wait
func (p *Prometheus) RecordMutexWait(waited time.Duration) {
	p.mutexWaits.Observe(waited.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})
}

// Recorders fans decisions out to several recorders
type Recorders []Recorder

// RecordDecision implements Recorder
func (rs Recorders) RecordDecision(stage string, allowed bool) {
	for _, r := range rs {
		if r != nil {
			r.RecordDecision(stage, allowed)
		}
	}
}

// RecordMutexWait forwards to every recorder that tracks lock waits
func (rs Recorders) RecordMutexWait(waited time.Duration) {
	for _, r := range rs {
		if w, ok := r.(interface{ RecordMutexWait(time.Duration) }); ok {
			w.RecordMutexWait(waited)
		}
	}
}
