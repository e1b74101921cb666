package domain

import (
	"fmt"
	"math"
	"strings"
)

// VehicleRangeProfile describes the battery and range characteristics of a
// single EV model as reported by the vehicle catalog.
//
// WorstRangeKm is the conservative threshold used for stop placement; it
// accounts for real-world degradation against the best-case range.
type VehicleRangeProfile struct {
	ID               string
	Make             string
	Model            string
	Version          string
	BatteryUsableKWh float64
	BestRangeKm      float64
	WorstRangeKm     float64
}

// Validate checks the worst <= best invariant and that both ranges are usable.
func (v VehicleRangeProfile) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("%w: empty vehicle id", ErrInvalidVehicleProfile)
	}

	for name, val := range map[string]float64{
		"battery_usable_kwh": v.BatteryUsableKWh,
		"best_range_km":      v.BestRangeKm,
		"worst_range_km":     v.WorstRangeKm,
	} {
		if math.IsNaN(val) || math.IsInf(val, 0) || val < 0 {
			return fmt.Errorf("%w: vehicle %q %s=%v", ErrInvalidVehicleProfile, v.ID, name, val)
		}
	}

	if v.BestRangeKm <= 0 || v.WorstRangeKm <= 0 {
		return fmt.Errorf("%w: vehicle %q ranges must be positive (best=%v worst=%v)",
			ErrInvalidVehicleProfile, v.ID, v.BestRangeKm, v.WorstRangeKm)
	}

	if v.WorstRangeKm > v.BestRangeKm {
		return fmt.Errorf("%w: vehicle %q worst range %v exceeds best range %v",
			ErrInvalidVehicleProfile, v.ID, v.WorstRangeKm, v.BestRangeKm)
	}

	return nil
}

// Efficiency returns usable kWh per best-case km.
func (v VehicleRangeProfile) Efficiency() float64 {
	if v.BestRangeKm == 0 {
		return 0
	}
	return v.BatteryUsableKWh / v.BestRangeKm
}

// DisplayName joins the non-empty naming parts.
func (v VehicleRangeProfile) DisplayName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{v.Make, v.Model, v.Version} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// CarSpecs is the vehicle summary attached to a RoutePlan.
type CarSpecs struct {
	VehicleID          string
	BatteryCapacityKWh float64
	OptimalRangeKm     float64
	WorstRangeKm       float64
	EfficiencyKWhPerKm float64
}

func (v VehicleRangeProfile) Specs() CarSpecs {
	return CarSpecs{
		VehicleID:          v.ID,
		BatteryCapacityKWh: v.BatteryUsableKWh,
		OptimalRangeKm:     v.BestRangeKm,
		WorstRangeKm:       v.WorstRangeKm,
		EfficiencyKWhPerKm: v.Efficiency(),
	}
}
