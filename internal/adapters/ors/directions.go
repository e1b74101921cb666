package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/metrics"
	"ev-route-service/internal/platform/obs"
	"fmt"
	"math"
	"net/http"

	"github.com/twpayne/go-polyline"
)

type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
	Units        string      `json:"units"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance *float64 `json:"distance"`
			Duration *float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// Route retrieves a driving route through waypoints in order using the
// OpenRouteService directions endpoint.
func (o *Provider) Route(
	ctx context.Context,
	waypoints []domain.Coordinates,
) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)
	defer func() { metrics.RoutingRequestsTotal.WithLabelValues(o.Name(), metrics.Result(err)).Inc() }()

	if len(waypoints) < 2 {
		return domain.RouteResult{}, fmt.Errorf("ors route: need at least 2 waypoints, got %d", len(waypoints))
	}

	locations := make([][]float64, 0, len(waypoints))
	for i, w := range waypoints {
		if err := w.Validate(); err != nil {
			return domain.RouteResult{}, fmt.Errorf("ors route: waypoint %d: %w", i, err)
		}
		locations = append(locations, w.CoordsToList())
	}

	payload, err := json.Marshal(directionsRequest{
		Coordinates:  locations,
		Instructions: false,
		Units:        "m",
	})
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("marshal directions request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, o.profile)

	resp, err := o.client.DoWithRetry(ctx, func() (*http.Request, error) {
		body := bytes.NewReader(payload)
		return o.client.NewRequest(ctx, http.MethodPost, endpoint, body)
	})
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return domain.RouteResult{}, fmt.Errorf("decode directions response: %w", err)
	}

	if len(dr.Routes) != 1 {
		return domain.RouteResult{}, fmt.Errorf("expected 1 route; got %d", len(dr.Routes))
	}

	route := dr.Routes[0]
	if route.Summary.Distance == nil || route.Summary.Duration == nil {
		return domain.RouteResult{}, errors.New("directions returned a route without summary metrics")
	}
	if route.Geometry == "" {
		return domain.RouteResult{}, errors.New("directions returned a route without geometry")
	}

	coords, _, err := polyline.DecodeCoords([]byte(route.Geometry))
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("decode directions geometry: %w", err)
	}

	points := make([]domain.Coordinates, 0, len(coords))
	for _, c := range coords {
		points = append(points, domain.Coordinates{Lat: c[0], Lon: c[1]})
	}

	line, err := domain.NewRoutePolyline(points)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("directions geometry: %w", err)
	}

	// ORS reports duration in float seconds; the routing port uses milliseconds.
	return domain.RouteResult{
		Polyline:       line,
		DistanceMeters: *route.Summary.Distance,
		DurationMillis: int64(math.Round(*route.Summary.Duration * 1000)),
	}, nil
}
