// Package ors adapts OpenRouteService directions and geocoding to the
// Router and Geocoder ports.
package ors

import (
	"errors"
	"ev-route-service/internal/adapters/rest"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.openrouteservice.org"

// Provider implements ports.Router and ports.Geocoder using OpenRouteService.
//
// It coordinates:
//   - Place name normalization
//   - Directions requests through ordered waypoints
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type Provider struct {
	client  *rest.Client
	baseURL string
	profile string
	country string
}

func NewProvider(apiKey, baseURL string) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	provider := &Provider{
		client:  rest.NewClient(30*time.Second, http.Header{"Authorization": []string{apiKey}}),
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "driving-car",
	}

	return provider, nil
}

// WithCountry restricts geocoding to an ISO country code (e.g. "FR").
func (o *Provider) WithCountry(code string) *Provider {
	o.country = strings.ToUpper(strings.TrimSpace(code))
	return o
}

func (o *Provider) Name() string { return "ors" }

func (o *Provider) SetRetryBackoff(d time.Duration) { o.client.InitialBackoff = d }

// normalize ensures consistent keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
