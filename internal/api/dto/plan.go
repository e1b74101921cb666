package dto

import "ev-route-service/internal/domain"

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PlanRequest names the endpoints either as place names (origin/destination)
// or as coordinates (origin_coords/destination_coords), not both.
type PlanRequest struct {
	Origin            string  `json:"origin"`
	Destination       string  `json:"destination"`
	OriginCoords      *LatLon `json:"origin_coords"`
	DestinationCoords *LatLon `json:"destination_coords"`
	VehicleID         string  `json:"vehicle_id"`
}

type ChargingStationResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	PowerKW float64 `json:"power_kw,omitempty"`
}

type CarSpecsResponse struct {
	VehicleID       string  `json:"vehicle_id"`
	BatteryCapacity float64 `json:"battery_capacity"`
	OptimalRange    float64 `json:"optimal_range"`
	WorstRange      float64 `json:"worst_range"`
	Efficiency      float64 `json:"efficiency"`
}

type PlanResponse struct {
	TotalDistance     string                    `json:"total_distance"`
	TotalDistanceKm   float64                   `json:"total_distance_km"`
	TravelTime        string                    `json:"travel_time"`
	TravelTimeSeconds int64                     `json:"travel_time_seconds"`
	RoutePath         [][]float64               `json:"route_path"`
	Waypoints         [][]float64               `json:"waypoints"`
	ChargingStations  []ChargingStationResponse `json:"charging_stations"`
	CarSpecs          CarSpecsResponse          `json:"car_specs"`
	Degraded          bool                      `json:"degraded"`
	MissedStops       int                       `json:"missed_stops"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// NewPlanResponse renders a plan in the public response shape.
func NewPlanResponse(p *domain.RoutePlan) PlanResponse {
	path := make([][]float64, 0, p.Polyline.Len())
	for _, c := range p.Polyline.Points() {
		path = append(path, c.LatLon())
	}

	waypoints := make([][]float64, 0, len(p.Waypoints))
	for _, c := range p.Waypoints {
		waypoints = append(waypoints, c.LatLon())
	}

	stations := make([]ChargingStationResponse, 0, len(p.Stops))
	for _, s := range p.Stops {
		stations = append(stations, ChargingStationResponse{
			ID:      s.ID,
			Name:    s.Name,
			Lat:     s.Location.Lat,
			Lon:     s.Location.Lon,
			PowerKW: s.PowerKW,
		})
	}

	return PlanResponse{
		TotalDistance:     domain.FormatDistanceKm(p.TotalDistanceKm),
		TotalDistanceKm:   p.TotalDistanceKm,
		TravelTime:        p.TravelTime(),
		TravelTimeSeconds: int64(p.TotalDuration.Seconds()),
		RoutePath:         path,
		Waypoints:         waypoints,
		ChargingStations:  stations,
		CarSpecs: CarSpecsResponse{
			VehicleID:       p.Vehicle.VehicleID,
			BatteryCapacity: p.Vehicle.BatteryCapacityKWh,
			OptimalRange:    p.Vehicle.OptimalRangeKm,
			WorstRange:      p.Vehicle.WorstRangeKm,
			Efficiency:      p.Vehicle.EfficiencyKWhPerKm,
		},
		Degraded:    p.Degraded,
		MissedStops: p.MissedStops,
	}
}
