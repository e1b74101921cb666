// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PlansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evroute_plans_total",
		Help: "Planning requests by outcome (ok, degraded, or a failure reason).",
	}, []string{"outcome"})

	StationLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evroute_station_lookups_total",
		Help: "Charging station lookups by result (found, not_found, error).",
	}, []string{"result"})

	RoutingRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evroute_routing_requests_total",
		Help: "Calls to the routing provider by provider and result.",
	}, []string{"provider", "result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evroute_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"method", "route", "status"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result maps an error to the "ok"/"error" label used by RoutingRequestsTotal.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
