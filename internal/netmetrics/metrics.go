// Package netmetrics provides Prometheus instrumentation for the request
// pipeline: end-to-end request latency, cache hit/miss, gate dedup, retry attempts,
// token refresh, orchestrator node outcomes, and config hot-reload health.
package netmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "corenetworkkit"

// LatencyBuckets are the histogram buckets for request-duration metrics.
var LatencyBuckets = []float64{
	0.005, 0.00625, 0.0125, 0.025, 0.05, 0.1, 0.5,
	1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0, 4.5, 5.0,
	5.5, 6.0, 6.5, 7.0, 7.5, 8.0, 8.5, 9.0, 9.5,
	10.0, 15.0, 20.0, 25.0, 30.0, 60.0,
}

var (
	// RequestsTotal counts every completed retry run (one per task that
	// reaches the network, background revalidations included) by method
	// and outcome ("success" or "error", see Outcome).
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of completed retry runs, labeled by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	// RequestDuration tracks end-to-end Execute latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end task execution latency in seconds",
			Buckets:   LatencyBuckets,
		},
		[]string{"method"},
	)

	// CacheResults counts cache reads by result ("hit" or "miss").
	CacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_results_total",
			Help:      "Cache read outcomes, labeled by result",
		},
		[]string{"result"},
	)

	// GateDedup counts ControlGate passes by whether the caller attached
	// to an in-flight call (shared) or proceeded to execute it.
	GateDedup = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_dedup_total",
			Help:      "ControlGate passes, labeled by attach/proceed",
		},
		[]string{"result"},
	)

	// RetryAttempts counts every attempt the retry engine makes, labeled
	// by its 1-based attempt number.
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_attempts_total",
			Help:      "Retry engine attempts, labeled by attempt number",
		},
		[]string{"attempt"},
	)

	// TokenRefreshes counts TokenRefreshCoordinator.Refresh outcomes.
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Token refresh outcomes, labeled by result",
		},
		[]string{"result"},
	)

	// OrchestratorNodes counts DAG node outcomes, labeled by result.
	OrchestratorNodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orchestrator_nodes_total",
			Help:      "Orchestrator node outcomes, labeled by result",
		},
		[]string{"result"},
	)

	// ConfigReloads counts netconfig.Manager.Reload outcomes.
	ConfigReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_reloads_total",
			Help:      "Configuration reload outcomes, labeled by result",
		},
		[]string{"result"},
	)

	// ConfigWarnings counts advisory configuration warnings surfaced by
	// Config.Warnings on initial load and every reload, labeled by code.
	ConfigWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_warnings_total",
			Help:      "Advisory configuration warnings, labeled by code",
		},
		[]string{"code"},
	)
)

// Outcome classifies an engine/retry error into a low-cardinality label
// suitable for RequestsTotal, without leaking status codes or messages
// into the label space.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	return "error"
}
