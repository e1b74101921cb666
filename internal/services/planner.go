package services

import (
	"context"
	"errors"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/geo"
	"ev-route-service/internal/platform/metrics"
	"ev-route-service/internal/ports"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Pipeline stages, in the order a successful request passes through them.
const (
	StageLoadingVehicle       = "loading_vehicle"
	StageGeocoding            = "geocoding"
	StageFetchingInitialRoute = "fetching_initial_route"
	StageSegmenting           = "segmenting"
	StageResolvingStations    = "resolving_stations"
	StageFetchingFinalRoute   = "fetching_final_route"
	StageRefining             = "refining"
	StageDone                 = "done"
)

// FailurePolicy decides what happens when a candidate gets no station.
type FailurePolicy string

const (
	// Drop the candidate and mark the plan degraded.
	PolicyDegrade FailurePolicy = "degrade"
	// Fail the whole request with StationLookupFailed.
	PolicyReject FailurePolicy = "reject"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyDegrade:
		return PolicyDegrade, nil
	case PolicyReject:
		return PolicyReject, nil
	default:
		return "", fmt.Errorf("unknown station failure policy %q", s)
	}
}

type Options struct {
	StationRadiusM     int
	StationConcurrency int
	StationRetries     int
	RetryBackoff       time.Duration
	FailurePolicy      FailurePolicy
	// Extra re-segmentation passes over the final route. Zero keeps the
	// single re-plan.
	MaxRefinePasses int
	// Deadline for the whole pipeline. Zero disables it.
	Timeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		StationRadiusM:     DefaultStationRadiusM,
		StationConcurrency: DefaultStationConcurrency,
		RetryBackoff:       DefaultRetryBackoff,
		FailurePolicy:      PolicyDegrade,
		Timeout:            60 * time.Second,
	}
}

// Planner orchestrates one charging-aware planning request:
// vehicle lookup, initial route, segmentation, station resolution and the
// final re-plan through the resolved stops.
type Planner struct {
	catalog   ports.VehicleCatalog
	geocoder  ports.Geocoder
	replanner *Replanner
	resolver  *StationResolver
	opts      Options
}

func NewPlanner(
	catalog ports.VehicleCatalog,
	router ports.Router,
	stations ports.StationDirectory,
	geocoder ports.Geocoder,
	opts Options,
) *Planner {
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = PolicyDegrade
	}
	resolver := NewStationResolver(stations, opts.StationRadiusM, opts.StationConcurrency, opts.StationRetries)
	if opts.RetryBackoff > 0 {
		resolver.SetRetryBackoff(opts.RetryBackoff)
	}

	return &Planner{
		catalog:   catalog,
		geocoder:  geocoder,
		replanner: NewReplanner(router),
		resolver:  resolver,
		opts:      opts,
	}
}

type endpointsFunc func(ctx context.Context) (origin, destination domain.Coordinates, err error)

// Plan a charging-aware route between two coordinates for vehicleID.
func (p *Planner) PlanChargingRoute(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	vehicleID string,
) (*domain.RoutePlan, error) {
	return p.run(ctx, vehicleID, func(context.Context) (domain.Coordinates, domain.Coordinates, error) {
		return origin, destination, nil
	})
}

// Geocode both place names, then plan as PlanChargingRoute does. The vehicle
// is still looked up first so an unknown id costs no geocoding calls.
func (p *Planner) PlanChargingRouteByPlace(
	ctx context.Context,
	originPlace string,
	destinationPlace string,
	vehicleID string,
) (*domain.RoutePlan, error) {
	return p.run(ctx, vehicleID, func(ctx context.Context) (domain.Coordinates, domain.Coordinates, error) {
		if p.geocoder == nil {
			return domain.Coordinates{}, domain.Coordinates{}, errors.New("no geocoder configured")
		}

		origin, err := p.geocoder.Geocode(ctx, originPlace)
		if err != nil {
			return domain.Coordinates{}, domain.Coordinates{}, fmt.Errorf("geocode origin %q: %w", originPlace, err)
		}
		destination, err := p.geocoder.Geocode(ctx, destinationPlace)
		if err != nil {
			return domain.Coordinates{}, domain.Coordinates{}, fmt.Errorf("geocode destination %q: %w", destinationPlace, err)
		}
		return origin, destination, nil
	})
}

func (p *Planner) run(ctx context.Context, vehicleID string, endpoints endpointsFunc) (*domain.RoutePlan, error) {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	logger := zerolog.Ctx(ctx).With().Str("vehicle_id", vehicleID).Logger()
	ctx = logger.WithContext(ctx)

	start := time.Now()
	plan, stage, err := p.plan(ctx, vehicleID, endpoints)
	if err != nil {
		pe := classify(ctx, stage, err)
		metrics.PlansTotal.WithLabelValues(string(pe.Reason)).Inc()
		logger.Warn().
			Str("stage", stage).
			Str("reason", string(pe.Reason)).
			Int64("dur_ms", time.Since(start).Milliseconds()).
			Err(err).
			Msg("planning failed")
		return nil, pe
	}

	outcome := "ok"
	if plan.Degraded {
		outcome = "degraded"
	}
	metrics.PlansTotal.WithLabelValues(outcome).Inc()
	logger.Info().
		Int("stops", len(plan.Stops)).
		Int("missed_stops", plan.MissedStops).
		Int("routing_calls", plan.RoutingCalls).
		Float64("distance_km", plan.TotalDistanceKm).
		Int64("dur_ms", time.Since(start).Milliseconds()).
		Msg("planning done")

	return plan, nil
}

// classify turns a stage failure into the terminal PlanningError. An expired
// request deadline always reports Timeout, whichever call noticed it.
func classify(ctx context.Context, stage string, err error) *domain.PlanningError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.PlanningError{
			Reason: domain.ReasonTimeout,
			Stage:  stage,
			Err:    fmt.Errorf("%w: %w", domain.ErrTimeout, err),
		}
	}
	return domain.NewPlanningError(stage, err)
}

func enter(ctx context.Context, stage string) string {
	zerolog.Ctx(ctx).Debug().Str("stage", stage).Msg("planning stage")
	return stage
}

func (p *Planner) plan(ctx context.Context, vehicleID string, endpoints endpointsFunc) (*domain.RoutePlan, string, error) {
	stage := enter(ctx, StageLoadingVehicle)

	vehicle, err := p.catalog.GetVehicle(ctx, vehicleID)
	if err != nil {
		// Any catalog failure means the vehicle cannot be planned for.
		if !errors.Is(err, domain.ErrVehicleNotFound) {
			err = fmt.Errorf("vehicle %q: %w: %w", vehicleID, domain.ErrVehicleNotFound, err)
		}
		return nil, stage, err
	}
	if err := vehicle.Validate(); err != nil {
		return nil, stage, err
	}

	stage = enter(ctx, StageGeocoding)
	origin, destination, err := endpoints(ctx)
	if err != nil {
		return nil, stage, err
	}
	if err := origin.Validate(); err != nil {
		return nil, stage, fmt.Errorf("origin: %w", err)
	}
	if err := destination.Validate(); err != nil {
		return nil, stage, fmt.Errorf("destination: %w", err)
	}

	stage = enter(ctx, StageFetchingInitialRoute)
	waypoints := []domain.Coordinates{origin, destination}
	route, err := p.replanner.PlanRoute(ctx, waypoints)
	if err != nil {
		return nil, stage, err
	}
	calls := 1

	stage = enter(ctx, StageSegmenting)
	candidates, err := SegmentRoute(route.Polyline, vehicle.WorstRangeKm)
	if err != nil {
		return nil, stage, err
	}
	if len(candidates) == 0 {
		enter(ctx, StageDone)
		return assemble(vehicle, route, nil, waypoints, 0, calls), stage, nil
	}

	stage = enter(ctx, StageResolvingStations)
	stops, missed, err := p.resolveStops(ctx, candidates)
	if err != nil {
		return nil, stage, err
	}
	if len(stops) == 0 {
		enter(ctx, StageDone)
		return assemble(vehicle, route, nil, waypoints, missed, calls), stage, nil
	}

	stage = enter(ctx, StageFetchingFinalRoute)
	waypoints = buildWaypoints(origin, stops, destination)
	route, err = p.replanner.PlanRoute(ctx, waypoints)
	if err != nil {
		return nil, stage, err
	}
	calls++

	for pass := 0; pass < p.opts.MaxRefinePasses; pass++ {
		stage = enter(ctx, StageRefining)

		refined, passMissed, err := p.refine(ctx, route.Polyline, stops, vehicle.WorstRangeKm)
		if err != nil {
			return nil, stage, err
		}
		missed += passMissed
		if len(refined) == len(stops) {
			break
		}

		zerolog.Ctx(ctx).Debug().
			Int("pass", pass+1).
			Int("added_stops", len(refined)-len(stops)).
			Msg("refinement added stops")

		stops = refined
		stage = enter(ctx, StageFetchingFinalRoute)
		waypoints = buildWaypoints(origin, stops, destination)
		route, err = p.replanner.PlanRoute(ctx, waypoints)
		if err != nil {
			return nil, stage, err
		}
		calls++
	}

	enter(ctx, StageDone)
	return assemble(vehicle, route, stops, waypoints, missed, calls), stage, nil
}

// resolveStops applies the failure policy to the candidate lookups and
// returns the resolved stops in travel order.
func (p *Planner) resolveStops(ctx context.Context, candidates []Candidate) ([]domain.ChargingStop, int, error) {
	failFast := p.opts.FailurePolicy == PolicyReject

	results, err := p.resolver.ResolveAll(ctx, candidates, failFast)
	if err != nil {
		return nil, 0, err
	}

	logger := zerolog.Ctx(ctx)
	stops := make([]domain.ChargingStop, 0, len(results))
	missed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			missed++
			logger.Warn().Err(r.Err).Int("index", r.Candidate.Index).Msg("station lookup failed, dropping candidate")
		case !r.Found:
			missed++
			logger.Info().Int("index", r.Candidate.Index).Str("point", r.Candidate.Point.String()).Msg("no station near candidate")
		default:
			stops = append(stops, r.Stop)
		}
	}

	return stops, missed, nil
}

// refine splits the final polyline at each stop, re-segments every leg and
// inserts stations for any leg that still exceeds the range.
func (p *Planner) refine(
	ctx context.Context,
	line domain.RoutePolyline,
	stops []domain.ChargingStop,
	rangeKm float64,
) ([]domain.ChargingStop, int, error) {
	points := line.Points()

	bounds := make([]int, 0, len(stops)+2)
	bounds = append(bounds, 0)
	prev := 0
	for _, s := range stops {
		idx := geo.NearestIndex(points, s.Location, prev)
		if idx < 0 {
			idx = len(points) - 1
		}
		bounds = append(bounds, idx)
		prev = idx
	}
	bounds = append(bounds, len(points)-1)

	var candidates []Candidate
	var legOf []int
	for leg := 0; leg+1 < len(bounds); leg++ {
		from, to := bounds[leg], bounds[leg+1]
		if to-from < 1 {
			continue
		}

		sub, err := line.Slice(from, to)
		if err != nil {
			return nil, 0, fmt.Errorf("refine leg %d: %w", leg, err)
		}
		legCandidates, err := SegmentRoute(sub, rangeKm)
		if err != nil {
			return nil, 0, fmt.Errorf("refine leg %d: %w", leg, err)
		}
		for _, c := range legCandidates {
			c.Index += from
			candidates = append(candidates, c)
			legOf = append(legOf, leg)
		}
	}

	if len(candidates) == 0 {
		return stops, 0, nil
	}

	results, err := p.resolver.ResolveAll(ctx, candidates, p.opts.FailurePolicy == PolicyReject)
	if err != nil {
		return nil, 0, err
	}

	known := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		known[s.ID] = struct{}{}
	}

	added := make([][]domain.ChargingStop, len(stops)+1)
	missed := 0
	for i, r := range results {
		if r.Err != nil || !r.Found {
			missed++
			continue
		}
		if _, dup := known[r.Stop.ID]; dup {
			continue
		}
		known[r.Stop.ID] = struct{}{}
		added[legOf[i]] = append(added[legOf[i]], r.Stop)
	}

	merged := make([]domain.ChargingStop, 0, len(stops)+len(candidates))
	for leg := range added {
		merged = append(merged, added[leg]...)
		if leg < len(stops) {
			merged = append(merged, stops[leg])
		}
	}

	return merged, missed, nil
}

func buildWaypoints(origin domain.Coordinates, stops []domain.ChargingStop, destination domain.Coordinates) []domain.Coordinates {
	out := make([]domain.Coordinates, 0, len(stops)+2)
	out = append(out, origin)
	for _, s := range stops {
		out = append(out, s.Location)
	}
	return append(out, destination)
}

func assemble(
	vehicle domain.VehicleRangeProfile,
	route domain.RouteResult,
	stops []domain.ChargingStop,
	waypoints []domain.Coordinates,
	missed int,
	calls int,
) *domain.RoutePlan {
	if stops == nil {
		stops = []domain.ChargingStop{}
	}
	return &domain.RoutePlan{
		Polyline:        route.Polyline,
		Stops:           stops,
		Waypoints:       waypoints,
		TotalDistanceKm: route.DistanceMeters / 1000,
		TotalDuration:   time.Duration(route.DurationMillis) * time.Millisecond,
		Vehicle:         vehicle.Specs(),
		Degraded:        missed > 0,
		MissedStops:     missed,
		RoutingCalls:    calls,
	}
}
