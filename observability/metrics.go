// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the deliberation pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// RUN METRICS
// =============================================================================

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concilium_runs_total",
			Help: "Total number of deliberation runs",
		},
		[]string{"status"}, // status: success, error
	)

	runDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concilium_run_duration_seconds",
			Help:    "End-to-end deliberation run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"stage"}, // stage: compete, review, synthesize, total
	)
)

// =============================================================================
// AGENT METRICS
// =============================================================================

var (
	agentExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concilium_agent_executions_total",
			Help: "Total number of agent executions",
		},
		[]string{"provider", "status"}, // status: success, error, cancelled, aborted
	)

	agentDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concilium_agent_duration_seconds",
			Help:    "Agent subprocess/session duration in seconds",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"provider"},
	)

	agentTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concilium_agent_tokens_total",
			Help: "Total tokens consumed by agent executions",
		},
		[]string{"provider", "direction"}, // direction: input, output
	)
)

// =============================================================================
// JUROR / GATEWAY METRICS
// =============================================================================

var (
	jurorCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concilium_juror_calls_total",
			Help: "Total juror ranking and chairman synthesis calls issued to the LLM gateway",
		},
		[]string{"model", "status"}, // status: complete, failed
	)

	jurorDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concilium_juror_duration_seconds",
			Help:    "Juror ranking and chairman synthesis call duration in seconds",
			Buckets: []float64{0.5, 1, 5, 10, 15, 30, 60},
		},
		[]string{"model"},
	)

	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concilium_gateway_requests_total",
			Help: "Total requests issued through the LLM gateway",
		},
		[]string{"model", "status"},
	)

	gatewayEstimatedCostTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concilium_gateway_estimated_cost_usd_total",
			Help: "Cumulative estimated USD cost of gateway calls",
		},
		[]string{"model"},
	)
)

// =============================================================================
// PUBLIC API
// =============================================================================

// RecordRun records the terminal status and total duration of a run.
func RecordRun(status string, durationMS int64) {
	runsTotal.WithLabelValues(status).Inc()
	runDurationSeconds.WithLabelValues("total").Observe(float64(durationMS) / 1000.0)
}

// RecordStageDuration records how long one pipeline stage took.
func RecordStageDuration(stage string, durationMS int64) {
	runDurationSeconds.WithLabelValues(stage).Observe(float64(durationMS) / 1000.0)
}

// RecordAgentExecution records one agent's terminal status and duration.
func RecordAgentExecution(provider string, status string, durationMS int64) {
	agentExecutionsTotal.WithLabelValues(provider, status).Inc()
	agentDurationSeconds.WithLabelValues(provider).Observe(float64(durationMS) / 1000.0)
}

// RecordAgentTokens adds to the running token counters for one provider.
func RecordAgentTokens(provider string, inputTokens, outputTokens int) {
	if inputTokens > 0 {
		agentTokensTotal.WithLabelValues(provider, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		agentTokensTotal.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}

// RecordJurorCall records one juror's ranking call outcome; the council
// also records the chairman's synthesis call through it.
func RecordJurorCall(model string, status string, durationMS int64) {
	jurorCallsTotal.WithLabelValues(model, status).Inc()
	jurorDurationSeconds.WithLabelValues(model).Observe(float64(durationMS) / 1000.0)
}

// RecordGatewayRequest records one gateway call outcome. Cost is
// recorded separately via RecordEstimatedCost: the gateway sees the
// call succeed or fail, but only the council pipeline can price it
// against the model catalog.
func RecordGatewayRequest(model string, status string) {
	gatewayRequestsTotal.WithLabelValues(model, status).Inc()
}

// RecordEstimatedCost adds one call's estimated USD cost to the running
// per-model total.
func RecordEstimatedCost(model string, costUSD float64) {
	if costUSD > 0 {
		gatewayEstimatedCostTotal.WithLabelValues(model).Add(costUSD)
	}
}
