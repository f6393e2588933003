// Package metrics declares all Prometheus collectors used by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Model manager metrics
var (
	// ModelLoaded reports whether a model class currently holds a loaded instance (0/1)
	ModelLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "model_loaded",
			Help: "Whether a model instance is currently loaded per class (0/1)",
		},
		[]string{"class"},
	)

	// ModelUsageCurrent reports the number of in-flight users per model class
	ModelUsageCurrent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "model_usage_current",
			Help: "Current number of concurrent users per model class",
		},
		[]string{"class"},
	)

	// ModelAcquisitionsTotal counts model acquisitions by class and outcome
	ModelAcquisitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_acquisitions_total",
			Help: "Total model acquisitions by class and outcome",
		},
		[]string{"class", "outcome"},
	)

	// ModelLoadDuration tracks model load latency per class
	ModelLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_load_duration_seconds",
			Help:    "Model load duration in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"class"},
	)

	// ModelUnloadsTotal counts model unloads by class and reason
	ModelUnloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_unloads_total",
			Help: "Total model unloads by class and reason (drained/forced/idle)",
		},
		[]string{"class", "reason"},
	)

	// ModelAcquireWaitDuration tracks time spent waiting for model capacity
	ModelAcquireWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_acquire_wait_duration_seconds",
			Help:    "Time spent waiting to acquire a model in seconds",
			Buckets: []float64{.001, .01, .05, .1, .5, 1, 5, 15, 60},
		},
		[]string{"class"},
	)
)

// Pipeline metrics
var (
	// PipelineRunsTotal counts pipeline runs by status
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total subtitle pipeline runs by status",
		},
		[]string{"status"},
	)

	// PipelineStepDuration tracks per-step processing latency
	PipelineStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_step_duration_seconds",
			Help:    "Pipeline step duration in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300},
		},
		[]string{"step"},
	)

	// PipelineCuesProcessed counts subtitle cues entering the pipeline
	PipelineCuesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_cues_processed_total",
			Help: "Total subtitle cues processed",
		},
	)
)

// Translation cache metrics
var (
	// TranslationCacheHits counts cache hits by backend (redis/memory)
	TranslationCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translation_cache_hits_total",
			Help: "Translation cache hits by backend",
		},
		[]string{"backend"},
	)

	// TranslationCacheMisses counts cache misses
	TranslationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "translation_cache_misses_total",
			Help: "Translation cache misses",
		},
	)
)

// Redis metrics
var (
	// RedisOpsTotal tracks total Redis operations by operation type and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisConnectionErrors counts failed Redis connection attempts
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total Redis connection establishment failures",
		},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Inference sidecar metrics
var (
	// InferenceRequestsTotal counts inference sidecar requests by capability and status
	InferenceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inference_requests_total",
			Help: "Total inference sidecar requests by capability and status",
		},
		[]string{"capability", "status"},
	)

	// InferenceRequestDuration tracks inference request latency by capability
	InferenceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inference_request_duration_seconds",
			Help:    "Inference sidecar request duration in seconds",
			Buckets: []float64{.05, .1, .5, 1, 5, 15, 60, 300},
		},
		[]string{"capability"},
	)
)

// Vocabulary metrics
var (
	// VocabularyReviewsTotal counts vocabulary review submissions by result
	VocabularyReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vocabulary_reviews_total",
			Help: "Total vocabulary review submissions by result",
		},
		[]string{"result"},
	)
)
