// Package app wires concrete adapters behind the ports for the server and CLI binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"ev-route-service/internal/adapters/cache"
	"ev-route-service/internal/adapters/catalog"
	"ev-route-service/internal/adapters/chargetrip"
	"ev-route-service/internal/adapters/graphhopper"
	"ev-route-service/internal/adapters/ors"
	"ev-route-service/internal/adapters/repositories"
	"ev-route-service/internal/config"
	"ev-route-service/internal/platform/db"
	"ev-route-service/internal/ports"
	"ev-route-service/internal/services"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// App holds the planner and the resources that must be closed on shutdown.
type App struct {
	Planner *services.Planner
	Catalog ports.VehicleCatalog

	db    *sql.DB
	redis *redis.Client
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

// Build opens storage, selects providers from cfg and assembles the planner.
func Build(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	logger := zerolog.Ctx(ctx)
	a := &App{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.db, err = OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var geocodeCache ports.GeocodeCache
	if a.db != nil {
		dialect, err := repositories.ParseDialect(cfg.DBDriver)
		if err != nil {
			return nil, fmt.Errorf("build app: %w", err)
		}
		geocodeCache = cache.NewSQLGeocodeCache(a.db, dialect)
	}

	router, err := newRouter(cfg)
	if err != nil {
		return nil, err
	}
	geocoder, err := newGeocoder(cfg, router)
	if err != nil {
		return nil, err
	}

	ct, err := chargetrip.NewClient(cfg.ChargetripClientID, cfg.ChargetripAppID, cfg.ChargetripEndpoint)
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}

	// Station lookups go through Redis when it is configured and reachable.
	var stations ports.StationDirectory = ct
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, station cache disabled")
			_ = client.Close()
		} else {
			a.redis = client
			stations = cache.NewRedisStationCache(client, ct, cfg.StationCacheTTL)
			logger.Info().Str("addr", cfg.RedisAddr).Msg("station cache enabled")
		}
	}

	switch cfg.CatalogSource {
	case "database":
		dialect, err := repositories.ParseDialect(cfg.DBDriver)
		if err != nil {
			return nil, fmt.Errorf("build app: %w", err)
		}
		if cfg.SeedPath != "" {
			if _, statErr := os.Stat(cfg.SeedPath); statErr == nil {
				n, err := repositories.SeedVehicles(ctx, a.db, dialect, cfg.SeedPath)
				if err != nil {
					return nil, fmt.Errorf("build app: %w", err)
				}
				logger.Info().Int("vehicles", n).Str("path", cfg.SeedPath).Msg("vehicle catalog seeded")
			}
		}
		a.Catalog = repositories.NewSQLVehicleRepository(a.db, dialect)
	default:
		a.Catalog = catalog.NewSnapshot(ct, cfg.CatalogTTL)
	}

	policy, err := services.ParseFailurePolicy(cfg.StationFailurePolicy)
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}

	opts := services.DefaultOptions()
	opts.StationRadiusM = cfg.StationRadiusM
	opts.StationConcurrency = cfg.StationConcurrency
	opts.StationRetries = cfg.StationRetries
	opts.FailurePolicy = policy
	opts.MaxRefinePasses = cfg.MaxRefinePasses
	opts.Timeout = cfg.PlanTimeout

	a.Planner = services.NewPlanner(
		a.Catalog,
		router,
		stations,
		cache.NewCachedGeocoder(geocoder, geocodeCache),
		opts,
	)

	return a, nil
}

// OpenDatabase connects to the configured database and ensures the schema
// exists. It returns nil for DB_DRIVER=none.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	var (
		conn *sql.DB
		err  error
	)

	switch cfg.DBDriver {
	case "postgres":
		conn, err = db.Open(cfg.DatabaseURL)
	case "sqlite":
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("open database: create %q: %w", dir, err)
			}
		}
		conn, err = db.OpenSQLite(cfg.DBPath)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("open database: unknown DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := repositories.InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

type routerGeocoder interface {
	ports.Router
	ports.Geocoder
}

func newProvider(cfg *config.Config, name string) (routerGeocoder, error) {
	switch name {
	case "graphhopper":
		p, err := graphhopper.NewProvider(cfg.GraphHopperAPIKey, cfg.GraphHopperURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "ors":
		p, err := ors.NewProvider(cfg.ORSAPIKey, cfg.ORSURL)
		if err != nil {
			return nil, err
		}
		return p.WithCountry(cfg.ORSCountry), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func newRouter(cfg *config.Config) (routerGeocoder, error) {
	p, err := newProvider(cfg, cfg.RoutingProvider)
	if err != nil {
		return nil, fmt.Errorf("build app: routing provider: %w", err)
	}
	return p, nil
}

// newGeocoder reuses the routing provider when both settings name it.
func newGeocoder(cfg *config.Config, router routerGeocoder) (ports.Geocoder, error) {
	if cfg.GeocoderProvider == cfg.RoutingProvider {
		return router, nil
	}
	p, err := newProvider(cfg, cfg.GeocoderProvider)
	if err != nil {
		return nil, fmt.Errorf("build app: geocoder provider: %w", err)
	}
	return p, nil
}
