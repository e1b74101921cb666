package services

import (
	"context"
	"errors"
	"ev-route-service/internal/adapters/catalog"
	"ev-route-service/internal/adapters/mock"
	"ev-route-service/internal/domain"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVehicle = domain.VehicleRangeProfile{
	ID:               "ev-1",
	Make:             "Acme",
	Model:            "Volt",
	BatteryUsableKWh: 60,
	BestRangeKm:      150,
	WorstRangeKm:     100,
}

func equatorPoint(km float64) domain.Coordinates {
	return domain.Coordinates{Lat: 0, Lon: km / kmPerDegree}
}

type fixture struct {
	router   *mock.StraightLineRouter
	stations *mock.StationDirectory
	catalog  *mock.Catalog
	geocoder *mock.Geocoder
	opts     Options
}

func newFixture() *fixture {
	opts := DefaultOptions()
	opts.RetryBackoff = time.Millisecond
	opts.Timeout = 5 * time.Second

	return &fixture{
		// 9 points per leg turns a direct [origin, destination] request
		// into a 10 point polyline.
		router:   mock.NewStraightLineRouter(9),
		stations: &mock.StationDirectory{},
		catalog:  mock.NewCatalog(testVehicle),
		geocoder: &mock.Geocoder{Places: map[string]domain.Coordinates{
			"Start": equatorPoint(0),
			"End":   equatorPoint(297),
		}},
		opts: opts,
	}
}

func (f *fixture) planner() *Planner {
	return NewPlanner(f.catalog, f.router, f.stations, f.geocoder, f.opts)
}

func requireReason(t *testing.T, err error, reason domain.Reason, stage string) {
	t.Helper()
	var pe *domain.PlanningError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, reason, pe.Reason)
	assert.Equal(t, stage, pe.Stage)
}

func TestPlanChargingRouteScenario(t *testing.T) {
	f := newFixture()
	origin, dest := equatorPoint(0), equatorPoint(297)

	plan, err := f.planner().PlanChargingRoute(context.Background(), origin, dest, "ev-1")
	require.NoError(t, err)

	require.Len(t, plan.Stops, 2)
	assert.InDelta(t, 99, plan.Stops[0].Location.Lon*kmPerDegree, 0.01)
	assert.InDelta(t, 231, plan.Stops[1].Location.Lon*kmPerDegree, 0.01)

	require.Len(t, plan.Waypoints, 4)
	assert.Equal(t, origin, plan.Waypoints[0])
	assert.Equal(t, dest, plan.Waypoints[3])

	calls := f.router.Calls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0], 2)
	assert.Equal(t, plan.Waypoints, calls[1])

	assert.Equal(t, 2, plan.RoutingCalls)
	assert.False(t, plan.Degraded)
	assert.InDelta(t, 297, plan.TotalDistanceKm, 0.5)
	assert.Equal(t, testVehicle.Specs(), plan.Vehicle)
	assert.Equal(t, 28, plan.Polyline.Len())
}

func TestPlanChargingRouteNoCandidatesSkipsReplan(t *testing.T) {
	f := newFixture()

	plan, err := f.planner().PlanChargingRoute(context.Background(), equatorPoint(0), equatorPoint(62.5), "ev-1")
	require.NoError(t, err)

	assert.Len(t, f.router.Calls(), 1)
	assert.Empty(t, f.stations.Calls())
	assert.Empty(t, plan.Stops)
	assert.Len(t, plan.Waypoints, 2)
	assert.Equal(t, 1, plan.RoutingCalls)
	assert.Equal(t, 10, plan.Polyline.Len())
	assert.InDelta(t, 62.5, plan.TotalDistanceKm, 0.1)
	assert.Equal(t, "0h 37m", plan.TravelTime())
}

func TestPlanChargingRouteStationFailureDoesNotAbort(t *testing.T) {
	f := newFixture()
	f.stations.Lookup = func(p domain.Coordinates, radiusM int) (domain.ChargingStop, bool, error) {
		if p.Lon*kmPerDegree < 150 {
			return domain.ChargingStop{}, false, errors.New("upstream 502")
		}
		return mock.StationAt(p), true, nil
	}

	plan, err := f.planner().PlanChargingRoute(context.Background(), equatorPoint(0), equatorPoint(297), "ev-1")
	require.NoError(t, err)

	assert.Len(t, plan.Stops, 1)
	assert.Len(t, plan.Waypoints, 3)
	assert.True(t, plan.Degraded)
	assert.Equal(t, 1, plan.MissedStops)
	assert.Equal(t, 2, plan.RoutingCalls)
}

func TestPlanChargingRouteNoStationsKeepsInitialRoute(t *testing.T) {
	f := newFixture()
	f.stations.Lookup = func(domain.Coordinates, int) (domain.ChargingStop, bool, error) {
		return domain.ChargingStop{}, false, nil
	}

	plan, err := f.planner().PlanChargingRoute(context.Background(), equatorPoint(0), equatorPoint(297), "ev-1")
	require.NoError(t, err)

	assert.Empty(t, plan.Stops)
	assert.Len(t, plan.Waypoints, 2)
	assert.Equal(t, 1, plan.RoutingCalls)
	assert.True(t, plan.Degraded)
	assert.Equal(t, 2, plan.MissedStops)
}

func TestPlanChargingRouteRejectPolicy(t *testing.T) {
	f := newFixture()
	f.opts.FailurePolicy = PolicyReject
	f.stations.Lookup = func(p domain.Coordinates, radiusM int) (domain.ChargingStop, bool, error) {
		return domain.ChargingStop{}, false, nil
	}

	_, err := f.planner().PlanChargingRoute(context.Background(), equatorPoint(0), equatorPoint(297), "ev-1")
	requireReason(t, err, domain.ReasonStationLookupFailed, StageResolvingStations)
	assert.True(t, errors.Is(err, domain.ErrStationLookupFailed))
	assert.Len(t, f.router.Calls(), 1)
}

func TestPlanChargingRouteRetriesStationLookups(t *testing.T) {
	f := newFixture()
	f.opts.StationRetries = 1

	var mu sync.Mutex
	seen := map[domain.Coordinates]int{}
	f.stations.Lookup = func(p domain.Coordinates, radiusM int) (domain.ChargingStop, bool, error) {
		mu.Lock()
		defer mu.Unlock()
		seen[p]++
		if seen[p] == 1 {
			return domain.ChargingStop{}, false, errors.New("flaky")
		}
		return mock.StationAt(p), true, nil
	}

	plan, err := f.planner().PlanChargingRoute(context.Background(), equatorPoint(0), equatorPoint(297), "ev-1")
	require.NoError(t, err)

	assert.Len(t, plan.Stops, 2)
	assert.False(t, plan.Degraded)
	assert.Len(t, f.stations.Calls(), 4)
}

func TestPlanChargingRouteRestoresCandidateOrder(t *testing.T) {
	f := newFixture()
	f.opts.StationConcurrency = 2
	// The earlier candidate answers last.
	f.stations.Lookup = func(p domain.Coordinates, radiusM int) (domain.ChargingStop, bool, error) {
		if p.Lon*kmPerDegree < 150 {
			time.Sleep(30 * time.Millisecond)
		}
		return mock.StationAt(p), true, nil
	}

	plan, err := f.planner().PlanChargingRoute(context.Background(), equatorPoint(0), equatorPoint(297), "ev-1")
	require.NoError(t, err)

	require.Len(t, plan.Stops, 2)
	assert.Less(t, plan.Stops[0].Location.Lon, plan.Stops[1].Location.Lon)
	assert.Equal(t, plan.Stops[0].Location, plan.Waypoints[1])
	assert.Equal(t, plan.Stops[1].Location, plan.Waypoints[2])
}

func TestPlanChargingRouteUnknownVehicleMakesNoCalls(t *testing.T) {
	f := newFixture()

	_, err := f.planner().PlanChargingRoute(context.Background(), equatorPoint(0), equatorPoint(297), "nope")
	requireReason(t, err, domain.ReasonVehicleNotFound, StageLoadingVehicle)
	assert.True(t, errors.Is(err, domain.ErrVehicleNotFound))

	assert.Empty(t, f.router.Calls())
	assert.Empty(t, f.stations.Calls())
}

func TestPlanChargingRouteCatalogOutageIsVehicleNotFound(t *testing.T) {
	f := newFixture()
	f.catalog.Err = errors.New("dial tcp: connection refused")
	snapshot := catalog.NewSnapshot(f.catalog, time.Minute)
	p := NewPlanner(snapshot, f.router, f.stations, f.geocoder, f.opts)

	_, err := p.PlanChargingRoute(context.Background(), equatorPoint(0), equatorPoint(297), "ev-1")
	requireReason(t, err, domain.ReasonVehicleNotFound, StageLoadingVehicle)
	assert.True(t, errors.Is(err, domain.ErrVehicleNotFound))
	assert.ErrorContains(t, err, "connection refused")

	_, err = p.PlanChargingRouteByPlace(context.Background(), "Start", "End", "ev-1")
	requireReason(t, err, domain.ReasonVehicleNotFound, StageLoadingVehicle)

	assert.Empty(t, f.router.Calls())
	assert.Empty(t, f.stations.Calls())
	assert.Zero(t, f.geocoder.CallCount())
}

func TestPlanChargingRouteInvalidVehicleProfile(t *testing.T) {
	f := newFixture()
	bad := testVehicle
	bad.WorstRangeKm = bad.BestRangeKm + 1
	f.catalog = mock.NewCatalog(bad)

	_, err := f.planner().PlanChargingRoute(context.Background(), equatorPoint(0), equatorPoint(297), "ev-1")
	requireReason(t, err, domain.ReasonInvalidVehicleProfile, StageLoadingVehicle)
	assert.Empty(t, f.router.Calls())
}

func TestPlanChargingRouteInvalidCoordinate(t *testing.T) {
	f := newFixture()

	_, err := f.planner().PlanChargingRoute(context.Background(),
		domain.Coordinates{Lat: 95, Lon: 0}, equatorPoint(10), "ev-1")
	requireReason(t, err, domain.ReasonInvalidCoordinate, StageGeocoding)
	assert.Empty(t, f.router.Calls())
}

func TestPlanChargingRouteRoutingFailures(t *testing.T) {
	t.Run("initial route", func(t *testing.T) {
		f := newFixture()
		f.router.Err = errors.New("provider down")

		_, err := f.planner().PlanChargingRoute(context.Background(), equatorPoint(0), equatorPoint(297), "ev-1")
		requireReason(t, err, domain.ReasonRoutingUnavailable, StageFetchingInitialRoute)
		assert.Empty(t, f.stations.Calls())
	})

	t.Run("final route", func(t *testing.T) {
		f := newFixture()
		f.router.Err = errors.New("provider down")
		f.router.FailOnCall = 2

		_, err := f.planner().PlanChargingRoute(context.Background(), equatorPoint(0), equatorPoint(297), "ev-1")
		requireReason(t, err, domain.ReasonRoutingUnavailable, StageFetchingFinalRoute)
		assert.True(t, errors.Is(err, domain.ErrRoutingUnavailable))
	})
}

type blockingRouter struct{}

func (blockingRouter) Route(ctx context.Context, _ []domain.Coordinates) (domain.RouteResult, error) {
	<-ctx.Done()
	return domain.RouteResult{}, ctx.Err()
}

func TestPlanChargingRouteTimeout(t *testing.T) {
	f := newFixture()
	f.opts.Timeout = 20 * time.Millisecond
	p := NewPlanner(f.catalog, blockingRouter{}, f.stations, f.geocoder, f.opts)

	_, err := p.PlanChargingRoute(context.Background(), equatorPoint(0), equatorPoint(297), "ev-1")
	requireReason(t, err, domain.ReasonTimeout, StageFetchingInitialRoute)
	assert.True(t, errors.Is(err, domain.ErrTimeout))
}

func TestPlanChargingRouteRefinement(t *testing.T) {
	// Stations sit ~4.4 km past each candidate, which pushes the first two
	// legs of the final route over the 100 km range.
	offset := func(p domain.Coordinates, radiusM int) (domain.ChargingStop, bool, error) {
		return mock.StationAt(domain.Coordinates{Lat: p.Lat, Lon: p.Lon + 0.04}), true, nil
	}

	t.Run("single re-plan", func(t *testing.T) {
		f := newFixture()
		f.stations.Lookup = offset

		plan, err := f.planner().PlanChargingRoute(context.Background(), equatorPoint(0), equatorPoint(297), "ev-1")
		require.NoError(t, err)
		assert.Len(t, plan.Stops, 2)
		assert.Equal(t, 2, plan.RoutingCalls)
	})

	t.Run("refine until stable", func(t *testing.T) {
		f := newFixture()
		f.stations.Lookup = offset
		f.opts.MaxRefinePasses = 3

		plan, err := f.planner().PlanChargingRoute(context.Background(), equatorPoint(0), equatorPoint(297), "ev-1")
		require.NoError(t, err)

		require.Len(t, plan.Stops, 4)
		for i := 1; i < len(plan.Stops); i++ {
			assert.Less(t, plan.Stops[i-1].Location.Lon, plan.Stops[i].Location.Lon, "stop %d out of travel order", i)
		}
		assert.Len(t, plan.Waypoints, 6)
		assert.Equal(t, 3, plan.RoutingCalls)
		assert.Len(t, f.router.Calls(), 3)
	})
}

func TestPlanChargingRouteByPlace(t *testing.T) {
	f := newFixture()

	plan, err := f.planner().PlanChargingRouteByPlace(context.Background(), "Start", "End", "ev-1")
	require.NoError(t, err)
	assert.Len(t, plan.Stops, 2)
	assert.Equal(t, 2, f.geocoder.CallCount())

	_, err = f.planner().PlanChargingRouteByPlace(context.Background(), "Start", "Atlantis", "ev-1")
	requireReason(t, err, domain.ReasonLocationNotFound, StageGeocoding)
}

func TestPlanChargingRouteByPlaceUnknownVehicleSkipsGeocoding(t *testing.T) {
	f := newFixture()

	_, err := f.planner().PlanChargingRouteByPlace(context.Background(), "Start", "End", "nope")
	requireReason(t, err, domain.ReasonVehicleNotFound, StageLoadingVehicle)
	assert.Zero(t, f.geocoder.CallCount())
	assert.Empty(t, f.router.Calls())
}

func TestParseFailurePolicy(t *testing.T) {
	p, err := ParseFailurePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyDegrade, p)

	p, err = ParseFailurePolicy(" Reject ")
	require.NoError(t, err)
	assert.Equal(t, PolicyReject, p)

	_, err = ParseFailurePolicy("ignore")
	assert.Error(t, err)
}
