// Package metric provides the Prometheus registry and core metrics for the
// query execution layer. Components receive a *Registry explicitly; there is
// no process-wide default.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the core execution-layer metrics.
type Metrics struct {
	// ChainsExecuted counts executed operation chains by outcome
	// ("success", "validation_error", "error").
	ChainsExecuted *prometheus.CounterVec
	// DispatchDuration observes per-graph dispatch latency.
	DispatchDuration *prometheus.HistogramVec
	// GraphFailures counts dispatch failures per constituent graph.
	GraphFailures *prometheus.CounterVec
	// OpenResults tracks merged results currently open.
	OpenResults prometheus.Gauge
	// RegisteredGraphs tracks the number of registered constituent graphs.
	RegisteredGraphs prometheus.Gauge
}

// NewMetrics creates unregistered core metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ChainsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gaffer_chains_executed_total",
			Help: "Operation chains executed, by outcome",
		}, []string{"status"}),
		DispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gaffer_dispatch_duration_seconds",
			Help:    "Time spent dispatching a chain to one constituent graph",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}, []string{"graph_id"}),
		GraphFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gaffer_graph_failures_total",
			Help: "Dispatch failures per constituent graph",
		}, []string{"graph_id"}),
		OpenResults: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gaffer_open_results",
			Help: "Merged results currently open",
		}),
		RegisteredGraphs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gaffer_registered_graphs",
			Help: "Registered constituent graphs",
		}),
	}
}

// Registry wraps a prometheus.Registry with the core metrics registered.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
}

// NewRegistry creates a registry with core and Go runtime metrics.
func NewRegistry() *Registry {
	r := &Registry{
		prometheusRegistry: prometheus.NewRegistry(),
		Metrics:            NewMetrics(),
	}

	r.prometheusRegistry.MustRegister(
		r.Metrics.ChainsExecuted,
		r.Metrics.DispatchDuration,
		r.Metrics.GraphFailures,
		r.Metrics.OpenResults,
		r.Metrics.RegisteredGraphs,
	)
	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// PrometheusRegistry returns the underlying Prometheus registry, for use
// with promhttp or push gateways.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}
