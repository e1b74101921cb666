// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	DBDriver    string // postgres, sqlite or none
	DatabaseURL string
	DBPath      string
	SeedPath    string
	RedisAddr   string

	RoutingProvider   string // graphhopper or ors
	GeocoderProvider  string
	GraphHopperAPIKey string
	GraphHopperURL    string
	ORSAPIKey         string
	ORSURL            string
	ORSCountry        string // optional ISO country filter for ORS geocoding

	ChargetripClientID string
	ChargetripAppID    string
	ChargetripEndpoint string

	CatalogSource string // chargetrip or database
	CatalogTTL    time.Duration

	StationRadiusM       int
	StationConcurrency   int
	StationRetries       int
	StationFailurePolicy string // degrade or reject
	StationCacheTTL      time.Duration
	MaxRefinePasses      int
	PlanTimeout          time.Duration
}

// LoadDotEnv loads a .env file when present. A missing file is not an error.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// Load reads environment variables and applies defaults.
func Load() *Config {
	return &Config{
		Port: Get("PORT", "8080"),
		Env:  Get("ENV", "development"),

		DBDriver:    Get("DB_DRIVER", "sqlite"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBPath:      Get("DB_PATH", "data/app.db"),
		SeedPath:    Get("SEED_PATH", "data/seeds/vehicles.yaml"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),

		RoutingProvider:   Get("ROUTING_PROVIDER", "graphhopper"),
		GeocoderProvider:  Get("GEOCODER_PROVIDER", Get("ROUTING_PROVIDER", "graphhopper")),
		GraphHopperAPIKey: os.Getenv("GRAPHHOPPER_API_KEY"),
		GraphHopperURL:    Get("GRAPHHOPPER_URL", "https://graphhopper.com/api/1"),
		ORSAPIKey:         os.Getenv("ORS_API_KEY"),
		ORSURL:            Get("ORS_URL", "https://api.openrouteservice.org"),
		ORSCountry:        os.Getenv("ORS_COUNTRY"),

		ChargetripClientID: os.Getenv("CHARGETRIP_CLIENT_ID"),
		ChargetripAppID:    os.Getenv("CHARGETRIP_APP_ID"),
		ChargetripEndpoint: Get("CHARGETRIP_ENDPOINT", "https://api.chargetrip.io/graphql"),

		CatalogSource: Get("CATALOG_SOURCE", "chargetrip"),
		CatalogTTL:    GetDuration("CATALOG_TTL", 15*time.Minute),

		StationRadiusM:       GetInt("STATION_RADIUS_M", 5000),
		StationConcurrency:   GetInt("STATION_CONCURRENCY", 4),
		StationRetries:       GetInt("STATION_RETRIES", 0),
		StationFailurePolicy: Get("STATION_FAILURE_POLICY", "degrade"),
		StationCacheTTL:      GetDuration("STATION_CACHE_TTL", 6*time.Hour),
		MaxRefinePasses:      GetInt("MAX_REFINE_PASSES", 0),
		PlanTimeout:          GetDuration("PLAN_TIMEOUT", 60*time.Second),
	}
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DB_DRIVER=postgres"))
		}
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			errs = append(errs, errors.New("DB_PATH is required when DB_DRIVER=sqlite"))
		}
	case "none":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres, sqlite or none, got %q", c.DBDriver))
	}

	for _, p := range []struct{ key, val string }{
		{"ROUTING_PROVIDER", c.RoutingProvider},
		{"GEOCODER_PROVIDER", c.GeocoderProvider},
	} {
		switch p.val {
		case "graphhopper":
			if c.GraphHopperAPIKey == "" {
				errs = append(errs, fmt.Errorf("GRAPHHOPPER_API_KEY is required when %s=graphhopper", p.key))
			}
		case "ors":
			if c.ORSAPIKey == "" {
				errs = append(errs, fmt.Errorf("ORS_API_KEY is required when %s=ors", p.key))
			}
		default:
			errs = append(errs, fmt.Errorf("%s must be graphhopper or ors, got %q", p.key, p.val))
		}
	}

	if c.ChargetripClientID == "" || c.ChargetripAppID == "" {
		errs = append(errs, errors.New("CHARGETRIP_CLIENT_ID and CHARGETRIP_APP_ID are required"))
	}

	switch c.CatalogSource {
	case "chargetrip":
	case "database":
		if c.DBDriver == "none" {
			errs = append(errs, errors.New("CATALOG_SOURCE=database needs a DB_DRIVER"))
		}
	default:
		errs = append(errs, fmt.Errorf("CATALOG_SOURCE must be chargetrip or database, got %q", c.CatalogSource))
	}

	if c.StationFailurePolicy != "degrade" && c.StationFailurePolicy != "reject" {
		errs = append(errs, fmt.Errorf("STATION_FAILURE_POLICY must be degrade or reject, got %q", c.StationFailurePolicy))
	}
	if c.StationRadiusM <= 0 {
		errs = append(errs, errors.New("STATION_RADIUS_M must be positive"))
	}
	if c.StationConcurrency < 1 {
		errs = append(errs, errors.New("STATION_CONCURRENCY must be at least 1"))
	}
	if c.StationRetries < 0 || c.MaxRefinePasses < 0 {
		errs = append(errs, errors.New("STATION_RETRIES and MAX_REFINE_PASSES must not be negative"))
	}
	if c.PlanTimeout <= 0 {
		errs = append(errs, errors.New("PLAN_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

// GetDuration accepts Go duration strings ("90s") or plain seconds ("90").
func GetDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
