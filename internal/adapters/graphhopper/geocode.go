package graphhopper

import (
	"context"
	"encoding/json"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/obs"
	"fmt"
	"net/http"
	"strings"
)

type geocodeResponse struct {
	Hits []struct {
		Point *struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"point"`
		Name string `json:"name"`
	} `json:"hits"`
}

// Geocode resolves place to the first GraphHopper hit.
func (g *Provider) Geocode(ctx context.Context, place string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "graphhopper.Geocode")(&err)

	place = strings.Join(strings.Fields(place), " ")
	if place == "" {
		return domain.Coordinates{}, fmt.Errorf("graphhopper geocode: %w: empty place name", domain.ErrLocationNotFound)
	}

	endpoint := g.baseURL + "/geocode"

	resp, err := g.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.client.NewRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("q", place)
		q.Set("limit", "1")
		q.Set("key", g.apiKey)
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("graphhopper geocode %q: execute request: %w", place, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("graphhopper geocode %q: decode response: %w", place, err)
	}

	if len(decoded.Hits) == 0 || decoded.Hits[0].Point == nil {
		return domain.Coordinates{}, fmt.Errorf("graphhopper geocode: %w: no results for %q", domain.ErrLocationNotFound, place)
	}

	c := domain.Coordinates{Lat: decoded.Hits[0].Point.Lat, Lon: decoded.Hits[0].Point.Lng}
	if err := c.Validate(); err != nil {
		return domain.Coordinates{}, fmt.Errorf("graphhopper geocode %q: %w", place, err)
	}
	return c, nil
}
