package ports

import (
	"context"
	"ev-route-service/internal/domain"
)

// Contract for the external routing service.
type Router interface {
	// Compute a drivable car route visiting waypoints in the given order.
	Route(ctx context.Context, waypoints []domain.Coordinates) (domain.RouteResult, error)
}
