// Package metrics defines the Prometheus collectors for the API, the store, and the batch pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simrec_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simrec_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simrec_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Store Metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simrec_store_operations_total",
			Help: "Total number of recommendation store operations by outcome",
		},
		[]string{"operation", "outcome"}, // outcome: "ok", "not_found", "error", "rejected"
	)

	StoreIngestedItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simrec_store_ingested_items_total",
			Help: "Total number of recommendation sets written, per namespace",
		},
		[]string{"namespace"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "simrec_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Pipeline Metrics
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simrec_pipeline_stage_duration_seconds",
			Help:    "Duration of batch pipeline stages in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"stage"}, // "embed", "build", "ingest"
	)

	PipelineItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simrec_pipeline_items_total",
			Help: "Items processed by the embedding stage by outcome",
		},
		[]string{"outcome"}, // "embedded", "chunked", "skipped", "duplicate"
	)

	EvaluationScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "simrec_evaluation_score",
			Help: "Latest offline evaluation score per metric and cutoff",
		},
		[]string{"metric", "n"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordStoreOperation counts one store call by outcome.
func RecordStoreOperation(operation, outcome string) {
	StoreOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordIngest counts sets written to namespace.
func RecordIngest(namespace string, count int) {
	StoreIngestedItems.WithLabelValues(namespace).Add(float64(count))
}

// SetCircuitBreakerState records a breaker state as 0 (closed), 1 (half-open), or 2 (open).
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordStage observes the duration of one pipeline stage.
func RecordStage(stage string, duration time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordPipelineItems adds count items with the given outcome.
func RecordPipelineItems(outcome string, count int) {
	if count > 0 {
		PipelineItems.WithLabelValues(outcome).Add(float64(count))
	}
}

// SetEvaluationScore records the latest score for metric at cutoff n.
func SetEvaluationScore(metric string, n int, score float64) {
	EvaluationScore.WithLabelValues(metric, strconv.Itoa(n)).Set(score)
}
