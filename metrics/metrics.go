// Package metrics exposes the Prometheus counters and histograms the
// streaming core publishes, grounded on haasonsaas-nexus's
// observability.Metrics pattern of promauto-registered vectors scoped to
// a private registry rather than the global default one.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the counters and histograms the orchestrator, cache
// scheduler, and compaction cleaner publish.
type Metrics struct {
	Registry *prometheus.Registry

	// TurnsTotal counts completed turn cycles by outcome (ok|error).
	TurnsTotal *prometheus.CounterVec

	// TurnDuration measures wall-clock time of a full turn cycle.
	TurnDuration prometheus.Histogram

	// ToolExecutions counts tool calls by name and outcome.
	ToolExecutions *prometheus.CounterVec

	// TokensTotal tracks input/output token usage.
	TokensTotal *prometheus.CounterVec

	// CostUSD is the most recently measured cumulative estimated spend for
	// the session (Telemetry.CostUSD is already a running total, so this is
	// a gauge rather than a counter to avoid double-accumulating it).
	CostUSD prometheus.Gauge

	// CacheDispatches counts panel refresh dispatches by panel type.
	CacheDispatches *prometheus.CounterVec

	// CleaningRuns counts agentic context-cleaning sub-turns.
	CleaningRuns prometheus.Counter

	// ContextUsageTokens is a gauge of the most recently measured context
	// token footprint, sampled once per turn.
	ContextUsageTokens prometheus.Gauge
}

// New builds a Metrics bound to a fresh, private registry so concurrent
// test runs (and multiple worker processes in one binary) never collide
// on the global default registerer.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		TurnsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contextpilot_turns_total",
			Help: "Total number of turn cycles completed, by outcome",
		}, []string{"outcome"}),

		TurnDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "contextpilot_turn_duration_seconds",
			Help:    "Wall-clock duration of a full turn cycle",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),

		ToolExecutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contextpilot_tool_executions_total",
			Help: "Total number of tool executions, by tool name and outcome",
		}, []string{"tool", "outcome"}),

		TokensTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contextpilot_tokens_total",
			Help: "Total tokens consumed, by direction",
		}, []string{"direction"}),

		CostUSD: f.NewGauge(prometheus.GaugeOpts{
			Name: "contextpilot_cost_usd",
			Help: "Most recently measured cumulative estimated spend in USD",
		}),

		CacheDispatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contextpilot_cache_dispatches_total",
			Help: "Total panel refresh dispatches, by panel type",
		}, []string{"panel_type"}),

		CleaningRuns: f.NewCounter(prometheus.CounterOpts{
			Name: "contextpilot_cleaning_runs_total",
			Help: "Total number of agentic context-cleaning sub-turns run",
		}),

		ContextUsageTokens: f.NewGauge(prometheus.GaugeOpts{
			Name: "contextpilot_context_usage_tokens",
			Help: "Most recently measured context token footprint",
		}),
	}
}
