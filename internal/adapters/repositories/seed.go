package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"ev-route-service/internal/domain"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type VehicleSeed struct {
	ID               string  `json:"id" yaml:"id"`
	Make             string  `json:"make" yaml:"make"`
	Model            string  `json:"model" yaml:"model"`
	Version          string  `json:"version" yaml:"version"`
	BatteryUsableKWh float64 `json:"battery_usable_kwh" yaml:"battery_usable_kwh"`
	BestRangeKm      float64 `json:"best_range_km" yaml:"best_range_km"`
	WorstRangeKm     float64 `json:"worst_range_km" yaml:"worst_range_km"`
}

func (s VehicleSeed) profile() domain.VehicleRangeProfile {
	return domain.VehicleRangeProfile{
		ID:               strings.TrimSpace(s.ID),
		Make:             strings.TrimSpace(s.Make),
		Model:            strings.TrimSpace(s.Model),
		Version:          strings.TrimSpace(s.Version),
		BatteryUsableKWh: s.BatteryUsableKWh,
		BestRangeKm:      s.BestRangeKm,
		WorstRangeKm:     s.WorstRangeKm,
	}
}

// LoadVehicleSeeds reads vehicle profiles from a .yaml/.yml or .json file and
// validates every entry.
func LoadVehicleSeeds(path string) ([]domain.VehicleRangeProfile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed vehicles: read %q: %w", path, err)
	}

	var data []VehicleSeed
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(bytes, &data); err != nil {
			return nil, fmt.Errorf("seed vehicles: parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(bytes, &data); err != nil {
			return nil, fmt.Errorf("seed vehicles: parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("seed vehicles: unsupported file type %q", filepath.Ext(path))
	}

	out := make([]domain.VehicleRangeProfile, 0, len(data))
	seen := make(map[string]struct{}, len(data))
	for i, item := range data {
		v := item.profile()
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("seed vehicles: item at index %d: %w", i+1, err)
		}
		if _, dup := seen[v.ID]; dup {
			return nil, fmt.Errorf("seed vehicles: duplicate id %q at index %d", v.ID, i+1)
		}
		seen[v.ID] = struct{}{}
		out = append(out, v)
	}

	return out, nil
}

// Populate the vehicles table from a seed file. Existing rows with the same id are replaced.
func SeedVehicles(ctx context.Context, db *sql.DB, dialect Dialect, path string) (int, error) {
	rows, err := LoadVehicleSeeds(path)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed vehicles: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := dialect.Rebind(`
	INSERT INTO vehicles (
		vehicle_id,
		make,
		model,
		version,
		battery_usable_kwh,
		best_range_km,
		worst_range_km
	)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (vehicle_id) DO UPDATE
	SET make = excluded.make,
		model = excluded.model,
		version = excluded.version,
		battery_usable_kwh = excluded.battery_usable_kwh,
		best_range_km = excluded.best_range_km,
		worst_range_km = excluded.worst_range_km;
	`)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("seed vehicles: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range rows {
		if _, err := stmt.ExecContext(ctx, v.ID, v.Make, v.Model, v.Version,
			v.BatteryUsableKWh, v.BestRangeKm, v.WorstRangeKm); err != nil {
			return 0, fmt.Errorf("seed vehicles: insert vehicle_id=%q: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed vehicles: commit tx: %w", err)
	}

	return len(rows), nil
}
