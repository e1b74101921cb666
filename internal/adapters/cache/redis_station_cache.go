package cache

import (
	"context"
	"encoding/json"
	"errors"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/ports"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	DefaultStationTTL  = 6 * time.Hour
	DefaultNotFoundTTL = 15 * time.Minute

	KeyStationNear = "evroute:station:near:" // + lat,lon:radius
)

type cachedStation struct {
	Found bool    `json:"found"`
	ID    string  `json:"id,omitempty"`
	Name  string  `json:"name,omitempty"`
	Lat   float64 `json:"lat,omitempty"`
	Lon   float64 `json:"lon,omitempty"`
	Power float64 `json:"power,omitempty"`
}

// RedisStationCache decorates a StationDirectory with a Redis read-through
// cache. Lookups are keyed on the point rounded to 4 decimals (~11 m) and the
// radius. "No station" answers are cached with a shorter TTL; directory errors
// are never cached.
type RedisStationCache struct {
	client      *redis.Client
	next        ports.StationDirectory
	ttl         time.Duration
	notFoundTTL time.Duration
}

func NewRedisStationCache(client *redis.Client, next ports.StationDirectory, ttl time.Duration) *RedisStationCache {
	if ttl <= 0 {
		ttl = DefaultStationTTL
	}
	notFoundTTL := DefaultNotFoundTTL
	if notFoundTTL > ttl {
		notFoundTTL = ttl
	}
	return &RedisStationCache{
		client:      client,
		next:        next,
		ttl:         ttl,
		notFoundTTL: notFoundTTL,
	}
}

func stationKey(p domain.Coordinates, radiusM int) string {
	return fmt.Sprintf("%s%.4f,%.4f:%d", KeyStationNear, p.Lat, p.Lon, radiusM)
}

func (r *RedisStationCache) NearestStation(
	ctx context.Context,
	point domain.Coordinates,
	radiusM int,
) (domain.ChargingStop, bool, error) {
	logger := zerolog.Ctx(ctx)
	key := stationKey(point, radiusM)

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cs cachedStation
		if err := json.Unmarshal(data, &cs); err == nil {
			if !cs.Found {
				return domain.ChargingStop{}, false, nil
			}
			return domain.ChargingStop{
				ID:       cs.ID,
				Name:     cs.Name,
				Location: domain.Coordinates{Lat: cs.Lat, Lon: cs.Lon},
				PowerKW:  cs.Power,
			}, true, nil
		}
		logger.Debug().Str("key", key).Msg("discarding undecodable station cache entry")
	case errors.Is(err, redis.Nil):
	default:
		logger.Warn().Err(err).Str("key", key).Msg("station cache read failed")
	}

	stop, found, err := r.next.NearestStation(ctx, point, radiusM)
	if err != nil {
		return domain.ChargingStop{}, false, err
	}

	cs := cachedStation{Found: found}
	ttl := r.notFoundTTL
	if found {
		cs = cachedStation{
			Found: true,
			ID:    stop.ID,
			Name:  stop.Name,
			Lat:   stop.Location.Lat,
			Lon:   stop.Location.Lon,
			Power: stop.PowerKW,
		}
		ttl = r.ttl
	}

	payload, err := json.Marshal(cs)
	if err == nil {
		err = r.client.Set(ctx, key, payload, ttl).Err()
	}
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("station cache write failed")
	}

	return stop, found, nil
}
