package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the operation counters the service exposes on /metrics.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	rejections *prometheus.CounterVec
}

// New creates a registry with the operation counters registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arcvault_operations_total",
		Help: "Completed ledger operations by kind.",
	}, []string{"operation"})

	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arcvault_rejections_total",
		Help: "Rejected operations by kind and reason.",
	}, []string{"operation", "reason"})

	registry.MustRegister(operations, rejections)

	return &Metrics{
		registry:   registry,
		operations: operations,
		rejections: rejections,
	}
}

// OperationCompleted counts one successful operation.
func (m *Metrics) OperationCompleted(operation string) {
	m.operations.WithLabelValues(operation).Inc()
}

// OperationRejected counts one rejected operation.
func (m *Metrics) OperationRejected(operation, reason string) {
	m.rejections.WithLabelValues(operation, reason).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
