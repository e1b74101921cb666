package services

import (
	"ev-route-service/internal/domain"
	"ev-route-service/internal/geo"
	"fmt"
	"math"
)

// Candidate is a polyline vertex where the vehicle should look for a charger.
type Candidate struct {
	Index               int
	Point               domain.Coordinates
	DistanceFromStartKm float64
}

// Split a route into candidate stop points using a running range accumulator.
//
// For each consecutive pair (i, i+1) the hop distance is added to the
// accumulator. Once it reaches rangeKm, point i (the earlier point of the
// pair) becomes a candidate and the accumulator resets to zero, discarding the
// overshoot so a stop is always requested before the range is exhausted. The
// destination vertex is never a candidate.
func SegmentRoute(line domain.RoutePolyline, rangeKm float64) ([]Candidate, error) {
	if math.IsNaN(rangeKm) || math.IsInf(rangeKm, 0) || rangeKm <= 0 {
		return nil, fmt.Errorf("segment route: %w: %v km", domain.ErrInvalidRangeThreshold, rangeKm)
	}

	n := line.Len()
	if n < 2 {
		return nil, fmt.Errorf("segment route: %w: %d points", domain.ErrInvalidPolyline, n)
	}

	candidates := []Candidate{}
	acc := 0.0
	traveled := 0.0

	for i := 0; i+1 < n; i++ {
		d, err := geo.Distance(line.At(i), line.At(i+1))
		if err != nil {
			return nil, fmt.Errorf("segment route: hop %d: %w", i, err)
		}

		acc += d
		if acc >= rangeKm {
			candidates = append(candidates, Candidate{
				Index:               i,
				Point:               line.At(i),
				DistanceFromStartKm: traveled,
			})
			acc = 0
		}
		traveled += d
	}

	return candidates, nil
}
