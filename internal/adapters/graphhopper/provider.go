// Package graphhopper adapts the GraphHopper Directions and Geocoding APIs
// to the Router and Geocoder ports.
package graphhopper

import (
	"errors"
	"ev-route-service/internal/adapters/rest"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://graphhopper.com/api/1"

// Provider implements ports.Router and ports.Geocoder.
// The provider is safe for concurrent use.
type Provider struct {
	client  *rest.Client
	apiKey  string
	baseURL string
	profile string
}

func NewProvider(apiKey, baseURL string) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("GraphHopper api key is empty")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Provider{
		client:  rest.NewClient(30*time.Second, http.Header{}),
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "car",
	}, nil
}

// Name identifies the provider in metrics and logs.
func (g *Provider) Name() string { return "graphhopper" }

// SetRetryBackoff overrides the initial retry delay; tests use it to stay fast.
func (g *Provider) SetRetryBackoff(d time.Duration) { g.client.InitialBackoff = d }
