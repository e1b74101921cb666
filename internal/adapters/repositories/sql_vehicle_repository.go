package repositories

import (
	"context"
	"database/sql"
	"errors"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/obs"
	"fmt"
)

// SQL-backed implementation of the VehicleCatalog port.
type SQLVehicleRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLVehicleRepository(db *sql.DB, dialect Dialect) *SQLVehicleRepository {
	return &SQLVehicleRepository{DB: db, Dialect: dialect}
}

const vehicleColumns = `
		vehicle_id,
		make,
		model,
		version,
		battery_usable_kwh,
		best_range_km,
		worst_range_km`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(r rowScanner) (domain.VehicleRangeProfile, error) {
	var v domain.VehicleRangeProfile
	err := r.Scan(&v.ID, &v.Make, &v.Model, &v.Version,
		&v.BatteryUsableKWh, &v.BestRangeKm, &v.WorstRangeKm)
	return v, err
}

// Fetch a single vehicle by id.
func (s *SQLVehicleRepository) GetVehicle(ctx context.Context, id string) (_ domain.VehicleRangeProfile, err error) {
	defer obs.Time(ctx, "vehicles.sql.GetVehicle")(&err)

	if s.DB == nil {
		return domain.VehicleRangeProfile{}, errors.New("sql vehicle repository: DB is nil")
	}

	query := s.Dialect.Rebind(`SELECT` + vehicleColumns + `
	FROM vehicles
	WHERE vehicle_id = ?;
	`)

	v, err := scanVehicle(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.VehicleRangeProfile{}, fmt.Errorf("get vehicle %q: %w", id, domain.ErrVehicleNotFound)
	}
	if err != nil {
		return domain.VehicleRangeProfile{}, fmt.Errorf("get vehicle %q: scan row: %w", id, err)
	}
	return v, nil
}

// Return all vehicles ordered by make and model.
func (s *SQLVehicleRepository) ListVehicles(ctx context.Context) (_ []domain.VehicleRangeProfile, err error) {
	defer obs.Time(ctx, "vehicles.sql.ListVehicles")(&err)

	if s.DB == nil {
		return nil, errors.New("sql vehicle repository: DB is nil")
	}

	query := `SELECT` + vehicleColumns + `
	FROM vehicles
	ORDER BY make, model, version, vehicle_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: query vehicles table: %w", err)
	}
	defer rows.Close()

	vehicles := make([]domain.VehicleRangeProfile, 0, 64)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("list vehicles: scan row: %w", err)
		}
		vehicles = append(vehicles, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: row iteration: %w", err)
	}

	return vehicles, nil
}
