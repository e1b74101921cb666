package ports

import (
	"context"
	"ev-route-service/internal/domain"
)

// Port: read-only access to vehicle range profiles.
type VehicleCatalog interface {
	// Return the profile for id, or an error wrapping domain.ErrVehicleNotFound.
	GetVehicle(ctx context.Context, id string) (domain.VehicleRangeProfile, error)
	// Return every profile the catalog knows about.
	ListVehicles(ctx context.Context) ([]domain.VehicleRangeProfile, error)
}
