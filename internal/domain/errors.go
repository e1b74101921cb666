package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCoordinate     = errors.New("invalid coordinate")
	ErrInvalidPolyline       = errors.New("invalid polyline")
	ErrInvalidRangeThreshold = errors.New("invalid range threshold")
	ErrInvalidVehicleProfile = errors.New("invalid vehicle profile")
	ErrVehicleNotFound       = errors.New("vehicle not found")
	ErrLocationNotFound      = errors.New("location not found")
	ErrRoutingUnavailable    = errors.New("routing unavailable")
	ErrStationLookupFailed   = errors.New("station lookup failed")
	ErrTimeout               = errors.New("planning timed out")
)

// Reason is a stable, transport-independent failure code.
type Reason string

const (
	ReasonInvalidCoordinate     Reason = "invalid_coordinate"
	ReasonInvalidPolyline       Reason = "invalid_polyline"
	ReasonInvalidRangeThreshold Reason = "invalid_range_threshold"
	ReasonInvalidVehicleProfile Reason = "invalid_vehicle_profile"
	ReasonVehicleNotFound       Reason = "vehicle_not_found"
	ReasonLocationNotFound      Reason = "location_not_found"
	ReasonRoutingUnavailable    Reason = "routing_unavailable"
	ReasonStationLookupFailed   Reason = "station_lookup_failed"
	ReasonTimeout               Reason = "timeout"
	ReasonInternal              Reason = "internal"
)

var reasonBySentinel = []struct {
	err    error
	reason Reason
}{
	{ErrInvalidCoordinate, ReasonInvalidCoordinate},
	{ErrInvalidPolyline, ReasonInvalidPolyline},
	{ErrInvalidRangeThreshold, ReasonInvalidRangeThreshold},
	{ErrInvalidVehicleProfile, ReasonInvalidVehicleProfile},
	{ErrVehicleNotFound, ReasonVehicleNotFound},
	{ErrLocationNotFound, ReasonLocationNotFound},
	{ErrRoutingUnavailable, ReasonRoutingUnavailable},
	{ErrStationLookupFailed, ReasonStationLookupFailed},
	{ErrTimeout, ReasonTimeout},
}

// PlanningError is the terminal Failed(reason) state of a planning request.
// Stage names the pipeline step that failed.
type PlanningError struct {
	Reason Reason
	Stage  string
	Err    error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("plan charging route: %s failed (%s): %v", e.Stage, e.Reason, e.Err)
}

func (e *PlanningError) Unwrap() error { return e.Err }

// NewPlanningError classifies err by the sentinel it wraps.
func NewPlanningError(stage string, err error) *PlanningError {
	return &PlanningError{Reason: ReasonOf(err), Stage: stage, Err: err}
}

// ReasonOf maps an error chain to its reason code, or ReasonInternal.
func ReasonOf(err error) Reason {
	var pe *PlanningError
	if errors.As(err, &pe) {
		return pe.Reason
	}
	for _, s := range reasonBySentinel {
		if errors.Is(err, s.err) {
			return s.reason
		}
	}
	return ReasonInternal
}
