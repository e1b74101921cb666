package ports

import (
	"context"
	"ev-route-service/internal/domain"
)

// Contract for the charging-station directory.
type StationDirectory interface {
	// Return the single best station within radiusM meters of point.
	// found is false when the directory has no match; err is non-nil only
	// for transport or service failures.
	NearestStation(ctx context.Context, point domain.Coordinates, radiusM int) (stop domain.ChargingStop, found bool, err error)
}
