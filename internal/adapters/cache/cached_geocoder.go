package cache

import (
	"context"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/ports"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// CachedGeocoder checks a persistent cache before calling the upstream
// geocoder and writes fresh results back. Cache failures are logged and never
// fail the lookup.
type CachedGeocoder struct {
	next  ports.Geocoder
	cache ports.GeocodeCache
}

func NewCachedGeocoder(next ports.Geocoder, cache ports.GeocodeCache) *CachedGeocoder {
	return &CachedGeocoder{next: next, cache: cache}
}

// normalizePlace collapses whitespace and case so equivalent names share a key.
func normalizePlace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func (c *CachedGeocoder) Geocode(ctx context.Context, place string) (domain.Coordinates, error) {
	key := normalizePlace(place)
	if key == "" {
		return domain.Coordinates{}, fmt.Errorf("geocode: %w: empty place name", domain.ErrLocationNotFound)
	}

	logger := zerolog.Ctx(ctx)

	if c.cache != nil {
		hits, err := c.cache.GetMany(ctx, []string{key})
		if err != nil {
			logger.Warn().Err(err).Str("place", key).Msg("geocode cache read failed")
		} else if coord, ok := hits[key]; ok {
			return coord, nil
		}
	}

	coord, err := c.next.Geocode(ctx, place)
	if err != nil {
		return domain.Coordinates{}, err
	}

	if c.cache != nil {
		if err := c.cache.PutMany(ctx, map[string]domain.Coordinates{key: coord}); err != nil {
			logger.Warn().Err(err).Str("place", key).Msg("geocode cache write failed")
		}
	}

	return coord, nil
}
