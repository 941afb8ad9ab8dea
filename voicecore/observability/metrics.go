// Package observability provides Prometheus metrics instrumentation for the pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// PIPELINE METRICS
// =============================================================================

var (
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voiceassist_queries_total",
			Help: "Total number of queries processed",
		},
		[]string{"intent", "status"}, // status: success, error
	)

	queryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voiceassist_query_duration_seconds",
			Help:    "End-to-end query duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"intent"},
	)
)

// =============================================================================
// STAGE METRICS
// =============================================================================

var (
	stageExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voiceassist_stage_executions_total",
			Help: "Total number of pipeline stage executions",
		},
		[]string{"stage", "status"}, // status: success, error
	)

	stageDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voiceassist_stage_duration_seconds",
			Help:    "Stage execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"stage"},
	)
)

// =============================================================================
// LLM METRICS
// =============================================================================

var (
	llmCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voiceassist_llm_calls_total",
			Help: "Total number of LLM API calls",
		},
		[]string{"backend", "model", "status"}, // status: success, error, capacity
	)

	llmDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voiceassist_llm_duration_seconds",
			Help:    "LLM call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"backend", "model"},
	)
)

// =============================================================================
// AUTHORIZATION METRICS
// =============================================================================

var (
	authCodesIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voiceassist_auth_codes_issued_total",
			Help: "Total number of authorization codes issued",
		},
	)

	authVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voiceassist_auth_verifications_total",
			Help: "Total number of authorization code verifications",
		},
		[]string{"result"}, // result: granted, denied
	)
)

// =============================================================================
// ACTION METRICS
// =============================================================================

var (
	actionsExecutedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voiceassist_actions_executed_total",
			Help: "Total number of actions executed against providers",
		},
		[]string{"action_type", "status"}, // status: success, error
	)
)

// =============================================================================
// PUBLIC API
// =============================================================================

// RecordQuery records end-to-end query metrics.
// This should be called after the pipeline completes.
func RecordQuery(intent string, status string, durationMS int) {
	queriesTotal.WithLabelValues(intent, status).Inc()
	queryDurationSeconds.WithLabelValues(intent).Observe(float64(durationMS) / 1000.0)
}

// RecordStageExecution records stage execution metrics.
// This should be called after stage processing completes.
func RecordStageExecution(stage string, status string, durationMS int) {
	stageExecutionsTotal.WithLabelValues(stage, status).Inc()
	stageDurationSeconds.WithLabelValues(stage).Observe(float64(durationMS) / 1000.0)
}

// RecordLLMCall records LLM call metrics.
// This should be called after LLM generation completes.
func RecordLLMCall(backend string, model string, status string, durationMS int) {
	llmCallsTotal.WithLabelValues(backend, model, status).Inc()
	llmDurationSeconds.WithLabelValues(backend, model).Observe(float64(durationMS) / 1000.0)
}

// RecordCodeIssued records an authorization code issuance.
func RecordCodeIssued() {
	authCodesIssuedTotal.Inc()
}

// RecordVerification records the outcome of a code verification.
func RecordVerification(granted bool) {
	result := "denied"
	if granted {
		result = "granted"
	}
	authVerificationsTotal.WithLabelValues(result).Inc()
}

// RecordActionExecution records an action execution against a provider.
func RecordActionExecution(actionType string, status string) {
	actionsExecutedTotal.WithLabelValues(actionType, status).Inc()
}
