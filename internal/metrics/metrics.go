// Package metrics provides Prometheus metrics for the proposal agent.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the agent.
type Metrics struct {
	ProviderRequestsTotal *prometheus.CounterVec
	ProviderLatency       *prometheus.HistogramVec
	TokensTotal           *prometheus.CounterVec
	CostUSDTotal          *prometheus.CounterVec
	WorkflowTransitions   *prometheus.CounterVec
	ErrorsTotal           *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ProviderRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_provider_requests_total",
				Help: "Total provider calls by provider, operation and status.",
			},
			[]string{"provider", "operation", "status"},
		),
		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_provider_latency_seconds",
				Help:    "Provider call latency by provider and operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "operation"},
		),
		TokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_tokens_total",
				Help: "Total tokens by provider, model and direction.",
			},
			[]string{"provider", "model", "direction"},
		),
		CostUSDTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_cost_usd_total",
				Help: "Accumulated spend in USD by provider and model.",
			},
			[]string{"provider", "model"},
		),
		WorkflowTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_workflow_transitions_total",
				Help: "Workflow stage transitions by target stage and result.",
			},
			[]string{"target_stage", "result"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.ProviderRequestsTotal)
	reg.MustRegister(m.ProviderLatency)
	reg.MustRegister(m.TokensTotal)
	reg.MustRegister(m.CostUSDTotal)
	reg.MustRegister(m.WorkflowTransitions)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordProviderCall increments the provider request counter.
func (m *Metrics) RecordProviderCall(provider, operation, status string) {
	m.ProviderRequestsTotal.WithLabelValues(provider, operation, status).Inc()
}

// ObserveProviderLatency records a provider call duration.
func (m *Metrics) ObserveProviderLatency(provider, operation string, seconds float64) {
	m.ProviderLatency.WithLabelValues(provider, operation).Observe(seconds)
}

// RecordTokens adds token counts for one call.
func (m *Metrics) RecordTokens(provider, model string, input, output int) {
	m.TokensTotal.WithLabelValues(provider, model, "input").Add(float64(input))
	m.TokensTotal.WithLabelValues(provider, model, "output").Add(float64(output))
}

// RecordCost adds spend for one call.
func (m *Metrics) RecordCost(provider, model string, usd float64) {
	m.CostUSDTotal.WithLabelValues(provider, model).Add(usd)
}

// RecordTransition increments the workflow transition counter.
func (m *Metrics) RecordTransition(targetStage, result string) {
	m.WorkflowTransitions.WithLabelValues(targetStage, result).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}
