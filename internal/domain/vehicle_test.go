package domain

import (
	"errors"
	"math"
	"testing"
)

func TestVehicleRangeProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile VehicleRangeProfile
		wantErr bool
	}{
		{
			name:    "valid",
			profile: VehicleRangeProfile{ID: "tesla-m3", BatteryUsableKWh: 57.5, BestRangeKm: 430, WorstRangeKm: 300},
		},
		{
			name:    "worst equals best",
			profile: VehicleRangeProfile{ID: "v", BatteryUsableKWh: 40, BestRangeKm: 250, WorstRangeKm: 250},
		},
		{
			name:    "worst exceeds best",
			profile: VehicleRangeProfile{ID: "v", BatteryUsableKWh: 40, BestRangeKm: 200, WorstRangeKm: 250},
			wantErr: true,
		},
		{
			name:    "zero worst range",
			profile: VehicleRangeProfile{ID: "v", BatteryUsableKWh: 40, BestRangeKm: 200},
			wantErr: true,
		},
		{
			name:    "nan battery",
			profile: VehicleRangeProfile{ID: "v", BatteryUsableKWh: math.NaN(), BestRangeKm: 200, WorstRangeKm: 150},
			wantErr: true,
		},
		{
			name:    "missing id",
			profile: VehicleRangeProfile{BatteryUsableKWh: 40, BestRangeKm: 200, WorstRangeKm: 150},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidVehicleProfile) {
					t.Fatalf("err = %v, want ErrInvalidVehicleProfile", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestVehicleSpecs(t *testing.T) {
	v := VehicleRangeProfile{ID: "e-208", Make: "Peugeot", Model: "e-208", BatteryUsableKWh: 50, BestRangeKm: 250, WorstRangeKm: 180}

	specs := v.Specs()
	if specs.EfficiencyKWhPerKm != 0.2 {
		t.Fatalf("efficiency = %v, want 0.2", specs.EfficiencyKWhPerKm)
	}
	if specs.WorstRangeKm != 180 {
		t.Fatalf("worst range = %v, want 180", specs.WorstRangeKm)
	}
	if got := v.DisplayName(); got != "Peugeot e-208" {
		t.Fatalf("display name = %q, want %q", got, "Peugeot e-208")
	}
}
