package cache

import (
	"context"
	"database/sql"
	"errors"
	"ev-route-service/internal/adapters/repositories"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/obs"
	"fmt"
	"strings"
)

// SQLGeocodeCache maps place names to coordinates in the geocode_cache table.
// It runs on both SQLite and Postgres; queries are written with ? and rebound
// for the configured dialect. Place keys are expected to be normalized by the
// caller.
type SQLGeocodeCache struct {
	DB      *sql.DB
	Dialect repositories.Dialect
}

func NewSQLGeocodeCache(db *sql.DB, dialect repositories.Dialect) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db, Dialect: dialect}
}

// selectPlacesQuery builds the lookup for n distinct places. Only the
// placeholder structure is interpolated; all values remain parameterized.
func selectPlacesQuery(d repositories.Dialect, n int) string {
	ph := strings.TrimSuffix(strings.Repeat("?,", n), ",")
	return d.Rebind(fmt.Sprintf(`
	SELECT place, lat, lon
    FROM geocode_cache
    WHERE place IN (%s);
	`, ph))
}

// upsertPlaceQuery relies on ON CONFLICT, which Postgres and SQLite 3.24+ share.
func upsertPlaceQuery(d repositories.Dialect) string {
	return d.Rebind(`
	INSERT INTO geocode_cache (place, lat, lon)
    VALUES (?, ?, ?)
	ON CONFLICT (place) DO UPDATE
	SET lat = excluded.lat,
		lon = excluded.lon;
	`)
}

// Fetch cached coordinates for the given place names.
func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	places []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	seen := map[string]struct{}{}
	args := make([]any, 0, len(places))
	for _, p := range places {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		args = append(args, p)
	}

	if len(args) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	rows, err := s.DB.QueryContext(ctx, selectPlacesQuery(s.Dialect, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(args))
	for rows.Next() {
		var place string
		var lat, lon float64
		if err := rows.Scan(&place, &lat, &lon); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		out[place] = domain.Coordinates{Lat: lat, Lon: lon}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// Store place -> coordinate mappings in the cache.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) (err error) {
	defer obs.Time(ctx, "geocode.cache.PutMany")(&err)

	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertPlaceQuery(s.Dialect))
	if err != nil {
		return fmt.Errorf("insert geocode cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for place, c := range results {
		if strings.TrimSpace(place) == "" {
			return errors.New("insert geocode cache: empty place key")
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("insert geocode cache place=%q: %w", place, err)
		}

		if _, err := stmt.ExecContext(ctx, place, c.Lat, c.Lon); err != nil {
			return fmt.Errorf("insert geocode cache place=%q: %w", place, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode cache commit: %w", err)
	}

	return nil
}
