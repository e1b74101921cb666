package graphhopper

import (
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

type routeResponse struct {
	Paths []struct {
		Distance      *float64        `json:"distance"`
		Time          *int64          `json:"time"`
		Points        json.RawMessage `json:"points"`
		PointsEncoded bool            `json:"points_encoded"`
	} `json:"paths"`
	Message string `json:"message"`
}

// Route requests a car route through waypoints in order.
func (g *Provider) Route(
	ctx context.Context,
	waypoints []domain.Coordinates,
) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, "graphhopper.Route")(&err)
	defer func() { metrics.RoutingRequestsTotal.WithLabelValues(g.Name(), metrics.Result(err)).Inc() }()

	if len(waypoints) < 2 {
		return domain.RouteResult{}, fmt.Errorf("graphhopper route: need at least 2 waypoints, got %d", len(waypoints))
	}
	for i, w := range waypoints {
		if err := w.Validate(); err != nil {
			return domain.RouteResult{}, fmt.Errorf("graphhopper route: waypoint %d: %w", i, err)
		}
	}

	endpoint := g.baseURL + "/route"

	resp, err := g.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.client.NewRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		for _, w := range waypoints {
			q.Add("point", w.String())
		}
		q.Set("profile", g.profile)
		q.Set("points_encoded", "true")
		q.Set("instructions", "false")
		q.Set("calc_points", "true")
		q.Set("key", g.apiKey)
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("graphhopper route: execute request: %w", err)
	}
	defer resp.Body.Close()

	var decoded routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.RouteResult{}, fmt.Errorf("graphhopper route: decode response: %w", err)
	}

	return decoded.toResult()
}

func (r routeResponse) toResult() (domain.RouteResult, error) {
	if len(r.Paths) == 0 {
		if r.Message != "" {
			return domain.RouteResult{}, fmt.Errorf("graphhopper route: no paths: %s", r.Message)
		}
		return domain.RouteResult{}, errors.New("graphhopper route: no paths in response")
	}

	path := r.Paths[0]
	if path.Distance == nil || path.Time == nil {
		return domain.RouteResult{}, errors.New("graphhopper route: path is missing distance or time")
	}
	if *path.Distance < 0 || math.IsNaN(*path.Distance) || *path.Time < 0 {
		return domain.RouteResult{}, fmt.Errorf("graphhopper route: invalid metrics distance=%v time=%v", *path.Distance, *path.Time)
	}

	points, err := decodePoints(path.Points, path.PointsEncoded)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("graphhopper route: %w", err)
	}

	line, err := domain.NewRoutePolyline(points)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("graphhopper route: %w", err)
	}

	return domain.RouteResult{
		Polyline:       line,
		DistanceMeters: *path.Distance,
		DurationMillis: *path.Time,
	}, nil
}

// decodePoints accepts both the encoded-polyline string and the GeoJSON
// LineString ([lon, lat] pairs) representations.
func decodePoints(raw json.RawMessage, encoded bool) ([]domain.Coordinates, error) {
	if len(raw) == 0 {
		return nil, errors.New("path has no points")
	}

	if encoded {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode encoded points: %w", err)
		}
		coords, _, err := polyline.DecodeCoords([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("decode polyline: %w", err)
		}
		out := make([]domain.Coordinates, 0, len(coords))
		for _, c := range coords {
			out = append(out, domain.Coordinates{Lat: c[0], Lon: c[1]})
		}
		return out, nil
	}

	var line struct {
		Coordinates [][]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &line); err != nil {
		return nil, fmt.Errorf("decode geojson points: %w", err)
	}
	out := make([]domain.Coordinates, 0, len(line.Coordinates))
	for i, c := range line.Coordinates {
		if len(c) < 2 {
			return nil, fmt.Errorf("point %d has %d values", i, len(c))
		}
		out = append(out, domain.Coordinates{Lon: c[0], Lat: c[1]})
	}
	return out, nil
}
