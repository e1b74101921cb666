package ors

import (
	"context"
	"encoding/json"
	"errors"
	"ev-route-service/internal/domain"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, h http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	p, err := NewProvider("ors-key", srv.URL)
	require.NoError(t, err)
	p.SetRetryBackoff(time.Millisecond)
	return p
}

func TestRouteSendsLonLatAndConvertsDuration(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/directions/driving-car", r.URL.Path)
		assert.Equal(t, "ors-key", r.Header.Get("Authorization"))

		// First attempt fails with a retryable status.
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var body directionsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, [][]float64{{-120.2, 38.5}, {-126.453, 43.252}}, body.Coordinates)

		w.Write([]byte(`{"routes":[{"summary":{"distance":1500.5,"duration":90.25},"geometry":"_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@"}]}`))
	})

	res, err := p.Route(context.Background(), []domain.Coordinates{
		{Lat: 38.5, Lon: -120.2},
		{Lat: 43.252, Lon: -126.453},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(90250), res.DurationMillis)
	assert.InDelta(t, 1500.5, res.DistanceMeters, 1e-9)
	assert.Equal(t, 3, res.Polyline.Len())
	assert.Equal(t, int32(2), calls.Load())
}

func TestRouteRejectsEmptyRoutes(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routes":[]}`))
	})

	_, err := p.Route(context.Background(), []domain.Coordinates{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1 route")
}

func TestGeocode(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "FR", r.URL.Query().Get("boundary.country"))
		if r.URL.Query().Get("text") == "Lyon" {
			w.Write([]byte(`{"features":[{"geometry":{"coordinates":[4.8357,45.764]}}]}`))
			return
		}
		w.Write([]byte(`{"features":[]}`))
	})
	p.WithCountry("fr")

	c, err := p.Geocode(context.Background(), "Lyon")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lat: 45.764, Lon: 4.8357}, c)

	_, err = p.Geocode(context.Background(), "Nowhere")
	assert.True(t, errors.Is(err, domain.ErrLocationNotFound))
}
