// Package metrics exposes Prometheus instrumentation for the scoring
// and correlation paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScoringTotal counts scoring calls per detection domain.
	ScoringTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linksight_scoring_total",
			Help: "Total number of batch scoring calls",
		},
		[]string{"domain"},
	)

	// ScoringDuration tracks end-to-end scoring latency per domain.
	ScoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linksight_scoring_duration_seconds",
			Help:    "Batch scoring duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"domain"},
	)

	// AnomaliesDetected counts flagged rows by domain and severity.
	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linksight_anomalies_detected_total",
			Help: "Total number of anomalies flagged",
		},
		[]string{"domain", "severity"},
	)

	// ModelCacheHits counts scorer cache hits.
	ModelCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linksight_model_cache_hits_total",
			Help: "Total number of model cache hits",
		},
	)

	// ModelCacheMisses counts scorer cache misses (each one is a
	// retraining).
	ModelCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linksight_model_cache_misses_total",
			Help: "Total number of model cache misses",
		},
	)

	// CorrelationAnalyses counts analyze calls per scope.
	CorrelationAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linksight_correlation_analyses_total",
			Help: "Total number of correlation analyses run",
		},
		[]string{"scope"},
	)

	// PatternsDetected counts degradation patterns by type.
	PatternsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linksight_patterns_detected_total",
			Help: "Total number of degradation patterns detected",
		},
		[]string{"pattern_type"},
	)
)
