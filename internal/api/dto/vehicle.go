package dto

type VehicleResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Make             string  `json:"make"`
	Model            string  `json:"model"`
	Version          string  `json:"version,omitempty"`
	BatteryUsableKWh float64 `json:"battery_usable_kwh"`
	BestRangeKm      float64 `json:"best_range_km"`
	WorstRangeKm     float64 `json:"worst_range_km"`
}

type ListVehiclesResponse struct {
	Vehicles []VehicleResponse `json:"vehicles"`
}
