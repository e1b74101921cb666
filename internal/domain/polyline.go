package domain

import "fmt"

// RoutePolyline is an ordered path from origin to destination in travel order.
// It owns a private copy of its points and is never modified after construction.
type RoutePolyline struct {
	points []Coordinates
}

// NewRoutePolyline copies and validates points. At least two points are required.
func NewRoutePolyline(points []Coordinates) (RoutePolyline, error) {
	if len(points) < 2 {
		return RoutePolyline{}, fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidPolyline, len(points))
	}

	cp := make([]Coordinates, len(points))
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return RoutePolyline{}, fmt.Errorf("%w: point %d: %w", ErrInvalidPolyline, i, err)
		}
		cp[i] = p
	}

	return RoutePolyline{points: cp}, nil
}

func (p RoutePolyline) Len() int { return len(p.points) }

func (p RoutePolyline) At(i int) Coordinates { return p.points[i] }

// Points returns a copy of the underlying coordinates.
func (p RoutePolyline) Points() []Coordinates {
	out := make([]Coordinates, len(p.points))
	copy(out, p.points)
	return out
}

// Slice returns the sub-path [from, to] inclusive.
func (p RoutePolyline) Slice(from, to int) (RoutePolyline, error) {
	if from < 0 || to >= len(p.points) || to-from < 1 {
		return RoutePolyline{}, fmt.Errorf("%w: slice [%d,%d] of %d points", ErrInvalidPolyline, from, to, len(p.points))
	}
	return NewRoutePolyline(p.points[from : to+1])
}

func (p RoutePolyline) Origin() Coordinates { return p.points[0] }

func (p RoutePolyline) Destination() Coordinates { return p.points[len(p.points)-1] }
