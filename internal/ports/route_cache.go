package ports

import (
	"cart-route-service/internal/domain"
	"context"
)

// Optional store for solver results keyed by a request fingerprint.
type RouteCache interface {
	// Return the cached result and whether it was found.
	Get(ctx context.Context, key string) (domain.RouteResult, bool, error)
	Put(ctx context.Context, key string, result domain.RouteResult) error
}
