package api

import (
	"cart-route-service/internal/api/handlers"
	"cart-route-service/internal/domain"
	"cart-route-service/internal/platform/metrics"
	"cart-route-service/internal/ports"
	"cart-route-service/internal/services"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
// history may be nil when no history database is configured.
func NewRouter(registry *domain.Registry, store *services.CorralStore, optimizer *services.Optimizer, history ports.SnapshotRepository) http.Handler {
	mux := http.NewServeMux()

	corralHandler := &handlers.CorralHandler{
		Store:     store,
		Registry:  registry,
		Snapshots: history,
		Threshold: optimizer.Threshold(),
	}
	optimizeHandler := &handlers.OptimizeHandler{Optimizer: optimizer}
	healthHandler := &handlers.HealthHandler{Registry: registry, Started: time.Now()}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/api/corrals", corralHandler.State)
	mux.HandleFunc("/api/corrals/layout", corralHandler.Layout)
	mux.HandleFunc("/api/corrals/history", corralHandler.History)
	mux.HandleFunc("/api/optimize-route", optimizeHandler.Optimize)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// requestID runs outermost so the access log line carries the id.
	return requestIDMiddleware(loggingMiddleware(mux))
}
