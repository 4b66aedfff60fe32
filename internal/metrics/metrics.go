// Package metrics exposes Prometheus counters for ledger operations.
//
// The collectors live in their own registry so several instances (one per
// test) never collide on the global default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "ledger"

// Operation results used as the "result" label.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the ledger collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	operations       *prometheus.CounterVec
	deleteSteps      *prometheus.CounterVec
	interventionCost prometheus.Counter
	rateLimitHits    *prometheus.CounterVec
	notifications    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by name and result.",
		}, []string{"operation", "result"}),
		deleteSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delete_steps_total",
			Help:      "Machine delete requests by the confirmation state they ended in.",
		}, []string{"state"}),
		interventionCost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intervention_cost_total",
			Help:      "Sum of the cost of all registered interventions.",
		}),
		rateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter, by route.",
		}, []string{"path"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_enqueued_total",
			Help:      "Notification jobs handed to the queue, by task type and result.",
		}, []string{"task", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.operations,
		m.deleteSteps,
		m.interventionCost,
		m.rateLimitHits,
		m.notifications,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveOperation counts one ledger call.
func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ObserveDeleteStep(state string) {
	if m == nil {
		return
	}
	m.deleteSteps.WithLabelValues(state).Inc()
}

func (m *Metrics) AddInterventionCost(cost decimal.Decimal) {
	if m == nil {
		return
	}
	f, _ := cost.Float64()
	m.interventionCost.Add(f)
}

func (m *Metrics) RecordRateLimitHit(path string) {
	if m == nil {
		return
	}
	m.rateLimitHits.WithLabelValues(path).Inc()
}

func (m *Metrics) ObserveNotification(task string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.notifications.WithLabelValues(task, result).Inc()
}
