package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry served on /metrics.
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route", "status"},
	)

	// CorralUpdates counts state updates by outcome ("ok" or the validation reason).
	CorralUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "corral_updates_total", Help: "Corral state updates by outcome."},
		[]string{"outcome"},
	)

	// SolverInvocations counts solver calls by outcome so the three failure
	// kinds stay distinguishable even though all of them fall back.
	SolverInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solver_invocations_total", Help: "External solver invocations by outcome."},
		[]string{"outcome"},
	)
	SolverDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solver_duration_seconds", Help: "External solver wall time in seconds.", Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}},
	)

	// RouteResults counts produced routes by method.
	RouteResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_results_total", Help: "Route results by producing method."},
		[]string{"method"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(CorralUpdates)
		Registry.MustRegister(SolverInvocations)
		Registry.MustRegister(SolverDuration)
		Registry.MustRegister(RouteResults)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
