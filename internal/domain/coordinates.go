package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Immutable geographic coordinates (WGS84 degrees).
type Coordinates struct {
	Lat float64
	Lon float64
}

// Validate rejects NaN/Inf values and latitudes or longitudes outside
// [-90, 90] and [-180, 180].
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return fmt.Errorf("%w: lat=%v lon=%v is not a finite number", ErrInvalidCoordinate, c.Lat, c.Lon)
	}
	if math.Abs(c.Lat) > 90 {
		return fmt.Errorf("%w: lat=%v out of range", ErrInvalidCoordinate, c.Lat)
	}
	if math.Abs(c.Lon) > 180 {
		return fmt.Errorf("%w: lon=%v out of range", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// Return coordinates as [lon, lat] for GeoJSON-style APIs (ORS, Chargetrip).
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Return coordinates as [lat, lon], the order used in API responses.
func (c Coordinates) LatLon() []float64 { return []float64{c.Lat, c.Lon} }

// String formats the point as "lat,lon" (GraphHopper point parameter).
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}
