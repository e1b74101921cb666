package ors

import (
	"context"
	"encoding/json"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/obs"
	"fmt"
	"net/http"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Geocode resolves a place name using OpenRouteService (/geocode/search).
// Calls may be retried via DoWithRetry.
func (o *Provider) Geocode(ctx context.Context, place string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := normalize(place)
	if norm == "" {
		return domain.Coordinates{}, fmt.Errorf("ors geocode: %w: empty place name", domain.ErrLocationNotFound)
	}

	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.client.NewRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		if o.country != "" {
			q.Set("boundary.country", o.country)
		}
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinates{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("ors geocode: %w: no results for %q", domain.ErrLocationNotFound, norm)
	}

	coords := decoded.Features[0].Geometry.Coordinates

	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", norm)
	}

	c := domain.Coordinates{
		Lon: coords[0],
		Lat: coords[1],
	}
	if err := c.Validate(); err != nil {
		return domain.Coordinates{}, fmt.Errorf("ors geocode %q: %w", norm, err)
	}

	return c, nil
}
