package services

import (
	"context"
	"errors"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/metrics"
	"ev-route-service/internal/ports"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultStationRadiusM     = 5000
	DefaultStationConcurrency = 4
	DefaultRetryBackoff       = 250 * time.Millisecond
)

// StationResolver looks up one charging station per candidate point. Retries
// live here rather than in the directory adapter so the policy is owned by the
// planner.
type StationResolver struct {
	directory    ports.StationDirectory
	radiusM      int
	concurrency  int
	retries      int
	retryBackoff time.Duration
}

func NewStationResolver(directory ports.StationDirectory, radiusM, concurrency, retries int) *StationResolver {
	if radiusM <= 0 {
		radiusM = DefaultStationRadiusM
	}
	if concurrency <= 0 {
		concurrency = DefaultStationConcurrency
	}
	if retries < 0 {
		retries = 0
	}
	return &StationResolver{
		directory:    directory,
		radiusM:      radiusM,
		concurrency:  concurrency,
		retries:      retries,
		retryBackoff: DefaultRetryBackoff,
	}
}

// SetRetryBackoff overrides the delay before the first retry; it doubles per attempt.
func (r *StationResolver) SetRetryBackoff(d time.Duration) {
	r.retryBackoff = d
}

// Find the best station within radiusM of point. found is false when the
// directory has no match. Failures wrap domain.ErrStationLookupFailed.
func (r *StationResolver) ResolveNear(
	ctx context.Context,
	point domain.Coordinates,
	radiusM int,
) (domain.ChargingStop, bool, error) {
	if err := point.Validate(); err != nil {
		return domain.ChargingStop{}, false, fmt.Errorf("resolve station: %w", err)
	}

	backoff := r.retryBackoff
	var lastErr error

	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			zerolog.Ctx(ctx).Debug().
				Int("attempt", attempt+1).
				Str("point", point.String()).
				Err(lastErr).
				Msg("retrying station lookup")

			select {
			case <-ctx.Done():
				return domain.ChargingStop{}, false, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		stop, found, err := r.directory.NearestStation(ctx, point, radiusM)
		if err == nil {
			if found {
				metrics.StationLookupsTotal.WithLabelValues("found").Inc()
			} else {
				metrics.StationLookupsTotal.WithLabelValues("not_found").Inc()
			}
			return stop, found, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.ChargingStop{}, false, ctxErr
		}
		lastErr = err
	}

	metrics.StationLookupsTotal.WithLabelValues("error").Inc()
	if errors.Is(lastErr, domain.ErrStationLookupFailed) {
		return domain.ChargingStop{}, false, fmt.Errorf("resolve station near %s: %w", point, lastErr)
	}
	return domain.ChargingStop{}, false, fmt.Errorf("resolve station near %s: %w: %w", point, domain.ErrStationLookupFailed, lastErr)
}

// Resolution is the outcome of one candidate lookup.
type Resolution struct {
	Candidate Candidate
	Stop      domain.ChargingStop
	Found     bool
	Err       error
}

// Resolve every candidate on a bounded worker pool. Results come back in
// candidate order regardless of completion order.
//
// With failFast set, the first unresolved candidate cancels the remaining
// lookups and is returned as the error.
func (r *StationResolver) ResolveAll(ctx context.Context, candidates []Candidate, failFast bool) ([]Resolution, error) {
	out := make([]Resolution, len(candidates))
	if len(candidates) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			stop, found, err := r.ResolveNear(gctx, c.Point, r.radiusM)
			out[i] = Resolution{Candidate: c, Stop: stop, Found: found, Err: err}

			if !failFast {
				return nil
			}
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("resolve station near %s: %w: no station within %d m",
					c.Point, domain.ErrStationLookupFailed, r.radiusM)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
