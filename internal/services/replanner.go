package services

import (
	"context"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/ports"
	"fmt"
	"math"
)

// Replanner asks the routing collaborator for a route through an ordered
// waypoint list and checks what comes back.
type Replanner struct {
	router ports.Router
}

func NewReplanner(router ports.Router) *Replanner {
	return &Replanner{router: router}
}

// Compute a route visiting waypoints in order: origin, stops..., destination.
// Provider failures wrap domain.ErrRoutingUnavailable; context errors are
// returned as-is so the caller can tell a deadline from an outage.
func (r *Replanner) PlanRoute(ctx context.Context, waypoints []domain.Coordinates) (domain.RouteResult, error) {
	if len(waypoints) < 2 {
		return domain.RouteResult{}, fmt.Errorf("plan route: %w: need at least 2 waypoints, got %d",
			domain.ErrInvalidCoordinate, len(waypoints))
	}
	for i, w := range waypoints {
		if err := w.Validate(); err != nil {
			return domain.RouteResult{}, fmt.Errorf("plan route: waypoint %d: %w", i, err)
		}
	}

	res, err := r.router.Route(ctx, waypoints)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.RouteResult{}, ctxErr
		}
		return domain.RouteResult{}, fmt.Errorf("plan route: %d waypoints: %w: %w",
			len(waypoints), domain.ErrRoutingUnavailable, err)
	}

	if res.Polyline.Len() < 2 {
		return domain.RouteResult{}, fmt.Errorf("plan route: %w: provider returned %d points",
			domain.ErrRoutingUnavailable, res.Polyline.Len())
	}
	if math.IsNaN(res.DistanceMeters) || res.DistanceMeters < 0 || res.DurationMillis < 0 {
		return domain.RouteResult{}, fmt.Errorf("plan route: %w: invalid summary distance=%v duration=%d",
			domain.ErrRoutingUnavailable, res.DistanceMeters, res.DurationMillis)
	}

	return res, nil
}
