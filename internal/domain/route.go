package domain

import (
	"fmt"
	"time"
)

// ChargingStop is a real station resolved near a candidate stop point.
type ChargingStop struct {
	ID       string
	Name     string
	Location Coordinates
	PowerKW  float64
}

// RouteResult is what the routing collaborator returns for an ordered
// waypoint list.
type RouteResult struct {
	Polyline       RoutePolyline
	DistanceMeters float64
	DurationMillis int64
}

// Represents the charging-aware route computed for one request.
// A RoutePlan is created once and never mutated; a new request produces a new plan.
//
// Degraded is set when at least one required stop could not be resolved, in
// which case MissedStops counts the candidates that were dropped.
type RoutePlan struct {
	Polyline        RoutePolyline
	Stops           []ChargingStop
	Waypoints       []Coordinates
	TotalDistanceKm float64
	TotalDuration   time.Duration
	Vehicle         CarSpecs
	Degraded        bool
	MissedStops     int
	RoutingCalls    int
}

// TravelTime formats the plan duration as "Xh Ym".
func (p *RoutePlan) TravelTime() string {
	return FormatTravelTime(p.TotalDuration.Milliseconds())
}

// FormatTravelTime renders milliseconds as "Xh Ym" with floor semantics:
// hours = ms / 3_600_000, minutes = (ms % 3_600_000) / 60_000.
func FormatTravelTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	minutes := (ms % 3_600_000) / 60_000
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// FormatDistanceKm renders kilometers with two decimals, e.g. "123.45 km".
func FormatDistanceKm(km float64) string {
	return fmt.Sprintf("%.2f km", km)
}
