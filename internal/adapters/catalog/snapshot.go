// Package catalog keeps an in-memory snapshot of a remote vehicle catalog.
package catalog

import (
	"context"
	"ev-route-service/internal/domain"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds a single upstream listing.
const DefaultRefreshTimeout = 30 * time.Second

// Lister is the upstream the snapshot is built from.
type Lister interface {
	ListVehicles(ctx context.Context) ([]domain.VehicleRangeProfile, error)
}

// Snapshot serves vehicle lookups from the last full listing of the upstream
// catalog and refreshes it once it is older than the TTL. A failed refresh
// keeps serving the stale snapshot when one exists.
type Snapshot struct {
	next           Lister
	ttl            time.Duration
	refreshTimeout time.Duration
	now            func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	byID      map[string]domain.VehicleRangeProfile
	ordered   []domain.VehicleRangeProfile
	fetchedAt time.Time
}

func NewSnapshot(next Lister, ttl time.Duration) *Snapshot {
	return &Snapshot{next: next, ttl: ttl, refreshTimeout: DefaultRefreshTimeout, now: time.Now}
}

func (s *Snapshot) GetVehicle(ctx context.Context, id string) (domain.VehicleRangeProfile, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return domain.VehicleRangeProfile{}, err
	}

	s.mu.RLock()
	v, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return domain.VehicleRangeProfile{}, fmt.Errorf("catalog vehicle %q: %w", id, domain.ErrVehicleNotFound)
	}
	return v, nil
}

func (s *Snapshot) ListVehicles(ctx context.Context) ([]domain.VehicleRangeProfile, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.VehicleRangeProfile, len(s.ordered))
	copy(out, s.ordered)
	return out, nil
}

// Invalidate forces the next lookup to refresh.
func (s *Snapshot) Invalidate() {
	s.mu.Lock()
	s.fetchedAt = time.Time{}
	s.mu.Unlock()
}

func (s *Snapshot) ensureFresh(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.byID != nil
	fresh := loaded && s.ttl > 0 && s.now().Sub(s.fetchedAt) < s.ttl
	s.mu.RUnlock()
	if fresh {
		return nil
	}

	// The refresh is shared by every waiter, so it must outlive the caller
	// that happened to start it.
	ch := s.group.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()
		return nil, s.refresh(rctx)
	})

	var err error
	select {
	case res := <-ch:
		err = res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err == nil {
		return nil
	}
	if loaded {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("vehicle catalog refresh failed, serving stale snapshot")
		return nil
	}
	return err
}

func (s *Snapshot) refresh(ctx context.Context) error {
	vs, err := s.next.ListVehicles(ctx)
	if err != nil {
		return fmt.Errorf("refresh vehicle catalog: %w", err)
	}

	byID := make(map[string]domain.VehicleRangeProfile, len(vs))
	ordered := make([]domain.VehicleRangeProfile, 0, len(vs))
	for _, v := range vs {
		if _, dup := byID[v.ID]; dup {
			continue
		}
		byID[v.ID] = v
		ordered = append(ordered, v)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DisplayName() < ordered[j].DisplayName()
	})

	s.mu.Lock()
	s.byID = byID
	s.ordered = ordered
	s.fetchedAt = s.now()
	s.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Int("vehicles", len(ordered)).Msg("vehicle catalog refreshed")
	return nil
}
