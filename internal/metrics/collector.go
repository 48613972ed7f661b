// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates Prometheus metrics for generation, caching, and the
// structured output repair loop. It satisfies both llm.MetricsRecorder and
// structured.MetricsRecorder.
type Collector struct {
	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	repairOutcomes *prometheus.CounterVec
	repairAttempts prometheus.Histogram
	healingCalls   *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector registers the metric families on reg and returns the
// collector. A nil reg uses the default registerer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.generationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of generation requests",
		},
		[]string{"provider", "model", "outcome"},
	)

	c.generationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Generation request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	c.cacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Total number of response cache hits",
	})

	c.cacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Total number of response cache misses",
	})

	c.repairOutcomes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repair_sessions_total",
			Help:      "Total number of repair sessions by outcome",
		},
		[]string{"outcome"},
	)

	c.repairAttempts = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "repair_attempts_per_session",
		Help:      "Healing attempts consumed per repair session",
		Buckets:   []float64{0, 1, 2, 3, 4, 5, 8},
	})

	c.healingCalls = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "healing_calls_total",
			Help:      "Total number of healing generation calls",
		},
		[]string{"status"},
	)

	return c
}

// RecordGeneration implements llm.MetricsRecorder.
func (c *Collector) RecordGeneration(provider, model, outcome string, duration time.Duration) {
	c.generationsTotal.WithLabelValues(provider, model, outcome).Inc()
	c.generationDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// RecordCacheLookup implements llm.MetricsRecorder.
func (c *Collector) RecordCacheLookup(hit bool) {
	if hit {
		c.cacheHits.Inc()
	} else {
		c.cacheMisses.Inc()
	}
}

// RecordRepairOutcome implements structured.MetricsRecorder.
func (c *Collector) RecordRepairOutcome(outcome string, attempts int) {
	c.repairOutcomes.WithLabelValues(outcome).Inc()
	c.repairAttempts.Observe(float64(attempts))
}

// RecordHealingCall implements structured.MetricsRecorder.
func (c *Collector) RecordHealingCall(success bool) {
	status := "error"
	if success {
		status = "ok"
	}
	c.healingCalls.WithLabelValues(status).Inc()
}
