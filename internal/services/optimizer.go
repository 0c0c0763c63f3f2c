package services

import (
	"cart-route-service/internal/config"
	"cart-route-service/internal/domain"
	"cart-route-service/internal/platform/metrics"
	"cart-route-service/internal/platform/obs"
	"cart-route-service/internal/ports"
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"
	"time"
)

const (
	DefaultCollectionThreshold = 5
	DefaultSolverTimeout       = 5 * time.Second

	// NoRouteMethod tags results that short-circuit before any solver runs.
	NoRouteMethod = "none"
)

type OptimizerConfig struct {
	Threshold        float64
	SolverTimeout    time.Duration
	DepotCountPolicy string
}

// Optimizer turns corral counts into a collection route.
//
// It prefers the geometric solver and falls back to FallbackRoute whenever
// the solver is missing, fails, times out, or reports no feasible tour, so
// callers only ever see validation or internal errors.
type Optimizer struct {
	registry *domain.Registry
	solver   ports.RouteSolver
	store    *CorralStore
	cfg      OptimizerConfig
}

// NewOptimizer wires an Optimizer. solver may be nil, in which case every
// request is served by the fallback. store is only consulted under the
// "store" depot count policy.
func NewOptimizer(registry *domain.Registry, solver ports.RouteSolver, store *CorralStore, cfg OptimizerConfig) (*Optimizer, error) {
	if registry == nil {
		return nil, errors.New("new optimizer: registry must be non-nil")
	}
	if cfg.Threshold < 0 {
		return nil, fmt.Errorf("new optimizer: threshold must be >= 0, got %v", cfg.Threshold)
	}
	if cfg.SolverTimeout <= 0 {
		cfg.SolverTimeout = DefaultSolverTimeout
	}

	switch cfg.DepotCountPolicy {
	case "":
		cfg.DepotCountPolicy = config.DepotCountFromRequest
	case config.DepotCountFromRequest:
	case config.DepotCountFromStore:
		if store == nil {
			return nil, errors.New("new optimizer: store depot count policy requires a corral store")
		}
	default:
		return nil, fmt.Errorf("new optimizer: unknown depot count policy %q", cfg.DepotCountPolicy)
	}

	return &Optimizer{registry: registry, solver: solver, store: store, cfg: cfg}, nil
}

func (o *Optimizer) Threshold() float64 { return o.cfg.Threshold }

// Optimize plans a route for the given id -> count mapping. Entries with a
// non-numeric count or an id outside the registry are dropped with a
// warning rather than failing the request.
func (o *Optimizer) Optimize(ctx context.Context, raw map[string]any) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, "optimize")(&err)

	if len(raw) == 0 {
		return domain.RouteResult{}, fmt.Errorf("optimize: %w", domain.ErrInvalidInput)
	}

	reqID := obs.RequestID(ctx)
	depot := o.registry.DepotID()

	depotCoords, err := o.registry.CoordinatesOf(depot)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("optimize: resolve depot: %w: %w", domain.ErrInternal, err)
	}

	counts := make(map[string]float64, len(raw))
	for _, id := range slices.Sorted(maps.Keys(raw)) {
		c, err := domain.ParseCount(raw[id])
		if err != nil {
			log.Printf("req_id=%s op=optimize.filter corral=%q warn=dropped err=%v", reqID, id, err)
			continue
		}
		counts[id] = c
	}

	// recognized keeps every known corral regardless of threshold so the
	// fallback can re-apply the filter on its own.
	recognized := make(map[string]float64, len(counts))
	corrals := make(map[string]domain.SolverCorral, len(counts)+1)

	for _, id := range slices.Sorted(maps.Keys(counts)) {
		coords, err := o.registry.CoordinatesOf(id)
		if err != nil {
			log.Printf("req_id=%s op=optimize.filter corral=%q warn=dropped err=%v", reqID, id, err)
			continue
		}
		recognized[id] = counts[id]

		if counts[id] < o.cfg.Threshold {
			continue
		}
		corrals[id] = domain.SolverCorral{X: coords.X, Y: coords.Y, Count: counts[id]}
	}

	if len(corrals) == 0 {
		res := domain.RouteResult{
			Success:        true,
			OptimizedRoute: []string{},
			Method:         NoRouteMethod,
			CorralsCovered: 0,
			Message:        fmt.Sprintf("No corrals at or above the collection threshold of %v carts.", o.cfg.Threshold),
		}
		metrics.RouteResults.WithLabelValues(routeMethodLabel(res.Method)).Inc()
		return res, nil
	}

	// The depot anchors every route, so it is always sent even when its own
	// count is below the threshold.
	if _, ok := corrals[depot]; !ok {
		corrals[depot] = domain.SolverCorral{X: depotCoords.X, Y: depotCoords.Y, Count: o.depotCount(counts)}
	}

	req := domain.SolverRequest{Corrals: corrals, Depot: depot}

	res, reason := o.solve(ctx, req)
	if reason != "" {
		res = FallbackRoute(recognized, depot, o.cfg.Threshold)
		res.Note = fmt.Sprintf("Degraded mode: %s; route ordered by cart count only.", reason)
	}

	metrics.RouteResults.WithLabelValues(routeMethodLabel(res.Method)).Inc()
	return res, nil
}

// routeMethodLabel folds solver-chosen method names into one label value.
func routeMethodLabel(method string) string {
	switch method {
	case FallbackMethod, NoRouteMethod:
		return method
	default:
		return "solver"
	}
}

func (o *Optimizer) depotCount(requested map[string]float64) float64 {
	depot := o.registry.DepotID()

	if o.cfg.DepotCountPolicy == config.DepotCountFromStore {
		if c, ok := o.store.Count(depot); ok {
			return c
		}
	}
	if c, ok := requested[depot]; ok {
		return c
	}
	return 0
}

// solve runs the solver under the configured timeout. It returns an empty
// reason on success and a human readable reason when the caller must fall back.
func (o *Optimizer) solve(ctx context.Context, req domain.SolverRequest) (domain.RouteResult, string) {
	reqID := obs.RequestID(ctx)

	if o.solver == nil {
		metrics.SolverInvocations.WithLabelValues("not_configured").Inc()
		return domain.RouteResult{}, "no solver configured"
	}

	sctx, cancel := context.WithTimeout(ctx, o.cfg.SolverTimeout)
	defer cancel()

	start := time.Now()
	res, err := o.solver.Solve(sctx, req)
	metrics.SolverDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := SolverOutcome(err)
		metrics.SolverInvocations.WithLabelValues(outcome).Inc()
		log.Printf("req_id=%s op=optimize.solve solver=%s outcome=%s fallback=true err=%v", reqID, o.solver.Name(), outcome, err)
		return domain.RouteResult{}, describeOutcome(outcome)
	}

	if !res.Success {
		metrics.SolverInvocations.WithLabelValues("infeasible").Inc()
		log.Printf("req_id=%s op=optimize.solve solver=%s outcome=infeasible fallback=true", reqID, o.solver.Name())
		return domain.RouteResult{}, describeOutcome("infeasible")
	}

	if len(res.OptimizedRoute) == 0 || !res.AnchoredAt(req.Depot) {
		metrics.SolverInvocations.WithLabelValues("output_invalid").Inc()
		log.Printf("req_id=%s op=optimize.solve solver=%s outcome=output_invalid fallback=true err=route %v not anchored at depot %q",
			reqID, o.solver.Name(), res.OptimizedRoute, req.Depot)
		return domain.RouteResult{}, describeOutcome("output_invalid")
	}

	metrics.SolverInvocations.WithLabelValues("ok").Inc()
	if res.Method == "" {
		res.Method = o.solver.Name()
	}
	return res, ""
}

// SolverOutcome maps a solver error onto a stable label for logs and metrics.
func SolverOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrSolverProcessFailed):
		return "process_failed"
	case errors.Is(err, domain.ErrSolverOutputInvalid):
		return "output_invalid"
	case errors.Is(err, domain.ErrSolverUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return "unavailable"
	default:
		return "error"
	}
}

func describeOutcome(outcome string) string {
	switch outcome {
	case "process_failed":
		return "route solver process failed"
	case "output_invalid":
		return "route solver returned invalid output"
	case "unavailable":
		return "route solver unavailable"
	case "infeasible":
		return "route solver found no feasible route"
	default:
		return "route solver error"
	}
}
