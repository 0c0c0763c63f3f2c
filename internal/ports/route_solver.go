package ports

import (
	"cart-route-service/internal/domain"
	"context"
)

// Contract for computing a geometric visiting order over a set of corrals.
// Implementations signal failures with the domain solver errors; a result
// with Success=false means the solver ran but found no feasible tour.
type RouteSolver interface {
	Name() string
	Solve(ctx context.Context, req domain.SolverRequest) (domain.RouteResult, error)
}
