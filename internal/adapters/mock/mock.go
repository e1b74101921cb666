// Package mock provides in-memory implementations of the ports for tests and
// offline runs.
package mock

import (
	"context"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/geo"
	"fmt"
	"sync"
)

// StraightLineRouter draws a route as straight segments between waypoints,
// interpolating PointsPerLeg points per leg. Every call is recorded.
type StraightLineRouter struct {
	PointsPerLeg int
	SpeedKmh     float64
	// Err, when set, is returned from the call with index FailOnCall (1-based),
	// or from every call when FailOnCall is 0.
	Err        error
	FailOnCall int

	mu    sync.Mutex
	calls [][]domain.Coordinates
}

func NewStraightLineRouter(pointsPerLeg int) *StraightLineRouter {
	return &StraightLineRouter{PointsPerLeg: pointsPerLeg, SpeedKmh: 100}
}

func (r *StraightLineRouter) Route(ctx context.Context, waypoints []domain.Coordinates) (domain.RouteResult, error) {
	r.mu.Lock()
	cp := make([]domain.Coordinates, len(waypoints))
	copy(cp, waypoints)
	r.calls = append(r.calls, cp)
	n := len(r.calls)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.RouteResult{}, err
	}
	if r.Err != nil && (r.FailOnCall == 0 || r.FailOnCall == n) {
		return domain.RouteResult{}, r.Err
	}
	if len(waypoints) < 2 {
		return domain.RouteResult{}, fmt.Errorf("mock route: need at least 2 waypoints")
	}

	per := r.PointsPerLeg
	if per < 1 {
		per = 1
	}

	points := []domain.Coordinates{waypoints[0]}
	for i := 0; i+1 < len(waypoints); i++ {
		a, b := waypoints[i], waypoints[i+1]
		for k := 1; k <= per; k++ {
			f := float64(k) / float64(per)
			points = append(points, domain.Coordinates{
				Lat: a.Lat + (b.Lat-a.Lat)*f,
				Lon: a.Lon + (b.Lon-a.Lon)*f,
			})
		}
	}

	line, err := domain.NewRoutePolyline(points)
	if err != nil {
		return domain.RouteResult{}, err
	}
	km, err := geo.PathLength(points)
	if err != nil {
		return domain.RouteResult{}, err
	}

	speed := r.SpeedKmh
	if speed <= 0 {
		speed = 100
	}

	return domain.RouteResult{
		Polyline:       line,
		DistanceMeters: km * 1000,
		DurationMillis: int64(km / speed * 3_600_000),
	}, nil
}

// Calls returns the waypoint lists of every Route call in order.
func (r *StraightLineRouter) Calls() [][]domain.Coordinates {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]domain.Coordinates, len(r.calls))
	copy(out, r.calls)
	return out
}

// StationDirectory answers lookups with Lookup, or with a station located
// exactly at the query point when Lookup is nil.
type StationDirectory struct {
	Lookup func(point domain.Coordinates, radiusM int) (domain.ChargingStop, bool, error)

	mu    sync.Mutex
	calls []domain.Coordinates
}

func (d *StationDirectory) NearestStation(ctx context.Context, point domain.Coordinates, radiusM int) (domain.ChargingStop, bool, error) {
	d.mu.Lock()
	d.calls = append(d.calls, point)
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.ChargingStop{}, false, err
	}
	if d.Lookup != nil {
		return d.Lookup(point, radiusM)
	}
	return StationAt(point), true, nil
}

func (d *StationDirectory) Calls() []domain.Coordinates {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.Coordinates, len(d.calls))
	copy(out, d.calls)
	return out
}

// StationAt builds a deterministic station located at p.
func StationAt(p domain.Coordinates) domain.ChargingStop {
	return domain.ChargingStop{
		ID:       fmt.Sprintf("st-%.5f-%.5f", p.Lat, p.Lon),
		Name:     "Mock station",
		Location: p,
		PowerKW:  150,
	}
}

// Catalog is an in-memory vehicle catalog.
type Catalog struct {
	Vehicles map[string]domain.VehicleRangeProfile
	Err      error
}

func NewCatalog(vs ...domain.VehicleRangeProfile) *Catalog {
	m := make(map[string]domain.VehicleRangeProfile, len(vs))
	for _, v := range vs {
		m[v.ID] = v
	}
	return &Catalog{Vehicles: m}
}

func (c *Catalog) GetVehicle(ctx context.Context, id string) (domain.VehicleRangeProfile, error) {
	if c.Err != nil {
		return domain.VehicleRangeProfile{}, c.Err
	}
	v, ok := c.Vehicles[id]
	if !ok {
		return domain.VehicleRangeProfile{}, fmt.Errorf("mock catalog %q: %w", id, domain.ErrVehicleNotFound)
	}
	return v, nil
}

func (c *Catalog) ListVehicles(ctx context.Context) ([]domain.VehicleRangeProfile, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	out := make([]domain.VehicleRangeProfile, 0, len(c.Vehicles))
	for _, v := range c.Vehicles {
		out = append(out, v)
	}
	return out, nil
}

// Geocoder resolves names from a fixed table.
type Geocoder struct {
	Places map[string]domain.Coordinates

	mu    sync.Mutex
	calls int
}

func (g *Geocoder) Geocode(ctx context.Context, place string) (domain.Coordinates, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	c, ok := g.Places[place]
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("mock geocode %q: %w", place, domain.ErrLocationNotFound)
	}
	return c, nil
}

func (g *Geocoder) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
