// Package geo provides great-circle distance helpers.
package geo

import (
	"ev-route-service/internal/domain"
	"fmt"
	"math"
)

const EarthRadiusKm = 6371.0

// Distance returns the haversine distance in kilometers between a and b.
// Both points must be valid coordinates.
func Distance(a, b domain.Coordinates) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, fmt.Errorf("geo distance: from: %w", err)
	}
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("geo distance: to: %w", err)
	}
	return haversine(a, b), nil
}

func haversine(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathLength sums the haversine distance over consecutive points.
func PathLength(points []domain.Coordinates) (float64, error) {
	total := 0.0
	for i := 0; i+1 < len(points); i++ {
		d, err := Distance(points[i], points[i+1])
		if err != nil {
			return 0, fmt.Errorf("path length: segment %d: %w", i, err)
		}
		total += d
	}
	return total, nil
}

// NearestIndex returns the index in points closest to target, searching from
// start onwards. It returns -1 when start is out of range.
func NearestIndex(points []domain.Coordinates, target domain.Coordinates, start int) int {
	best := -1
	bestDist := math.Inf(1)
	for i := start; i >= 0 && i < len(points); i++ {
		if d := haversine(points[i], target); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
