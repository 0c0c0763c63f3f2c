package solver

import (
	"cart-route-service/internal/domain"
	"context"
	"sync"
)

// StaticSolver returns a fixed result or error and records what it was asked.
type StaticSolver struct {
	Result domain.RouteResult
	Err    error

	mu       sync.Mutex
	requests []domain.SolverRequest
}

func (s *StaticSolver) Name() string { return "static" }

func (s *StaticSolver) Solve(ctx context.Context, req domain.SolverRequest) (domain.RouteResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.Err != nil {
		return domain.RouteResult{}, s.Err
	}
	return s.Result, nil
}

func (s *StaticSolver) Requests() []domain.SolverRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SolverRequest(nil), s.requests...)
}

// FuncSolver adapts a function to the RouteSolver port.
type FuncSolver func(ctx context.Context, req domain.SolverRequest) (domain.RouteResult, error)

func (f FuncSolver) Name() string { return "func" }

func (f FuncSolver) Solve(ctx context.Context, req domain.SolverRequest) (domain.RouteResult, error) {
	return f(ctx, req)
}
