package ports

import (
	"context"
	"ev-route-service/internal/domain"
)

// Contract for resolving place names to coordinates.
type Geocoder interface {
	// Return the best match for place, or an error wrapping domain.ErrLocationNotFound.
	Geocode(ctx context.Context, place string) (domain.Coordinates, error)
}

// Persistent place -> coordinate cache used by geocoder decorators.
type GeocodeCache interface {
	GetMany(ctx context.Context, places []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
