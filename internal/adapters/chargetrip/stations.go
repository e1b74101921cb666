package chargetrip

import (
	"context"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/obs"
	"fmt"
	"strings"
)

const stationAroundQuery = `
query stationAround($filter: StationAroundFilter!, $size: Int) {
  stationAround(filter: $filter, size: $size) {
    id
    name
    location {
      type
      coordinates
    }
    power
  }
}`

type stationAroundData struct {
	StationAround []station `json:"stationAround"`
}

type station struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location *struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"location"`
	Power *float64 `json:"power"`
}

// NearestStation asks Chargetrip for the single best station within radiusM
// of point. It never retries; a failure is reported as
// domain.ErrStationLookupFailed so the caller can apply its own policy.
func (c *Client) NearestStation(
	ctx context.Context,
	point domain.Coordinates,
	radiusM int,
) (_ domain.ChargingStop, _ bool, err error) {
	defer obs.Time(ctx, "chargetrip.NearestStation")(&err)

	if err := point.Validate(); err != nil {
		return domain.ChargingStop{}, false, fmt.Errorf("nearest station: %w", err)
	}
	if radiusM <= 0 {
		return domain.ChargingStop{}, false, fmt.Errorf("nearest station: radius must be positive, got %d", radiusM)
	}

	vars := map[string]any{
		"filter": map[string]any{
			"location": map[string]any{
				"type":        "Point",
				"coordinates": point.CoordsToList(),
			},
			"distance": radiusM,
		},
		"size": 1,
	}

	var data stationAroundData
	if err := c.query(ctx, stationAroundQuery, vars, &data, false); err != nil {
		return domain.ChargingStop{}, false, fmt.Errorf("nearest station near %s: %w: %w", point, domain.ErrStationLookupFailed, err)
	}

	if len(data.StationAround) == 0 {
		return domain.ChargingStop{}, false, nil
	}

	stop, err := data.StationAround[0].toDomain()
	if err != nil {
		return domain.ChargingStop{}, false, fmt.Errorf("nearest station near %s: %w: %w", point, domain.ErrStationLookupFailed, err)
	}

	return stop, true, nil
}

func (s station) toDomain() (domain.ChargingStop, error) {
	if strings.TrimSpace(s.ID) == "" {
		return domain.ChargingStop{}, fmt.Errorf("station without id")
	}
	if s.Location == nil || len(s.Location.Coordinates) != 2 {
		return domain.ChargingStop{}, fmt.Errorf("station %q has no usable location", s.ID)
	}

	loc := domain.Coordinates{Lon: s.Location.Coordinates[0], Lat: s.Location.Coordinates[1]}
	if err := loc.Validate(); err != nil {
		return domain.ChargingStop{}, fmt.Errorf("station %q: %w", s.ID, err)
	}

	stop := domain.ChargingStop{
		ID:       s.ID,
		Name:     strings.TrimSpace(s.Name),
		Location: loc,
	}
	if s.Power != nil {
		stop.PowerKW = *s.Power
	}
	return stop, nil
}
