package services

import (
	"context"
	"errors"
	"ev-route-service/internal/adapters/mock"
	"ev-route-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNearWrapsFailures(t *testing.T) {
	dir := &mock.StationDirectory{Lookup: func(domain.Coordinates, int) (domain.ChargingStop, bool, error) {
		return domain.ChargingStop{}, false, errors.New("connection reset")
	}}
	r := NewStationResolver(dir, 0, 0, 0)

	_, found, err := r.ResolveNear(context.Background(), equatorPoint(10), 5000)
	assert.False(t, found)
	assert.True(t, errors.Is(err, domain.ErrStationLookupFailed))
	assert.Len(t, dir.Calls(), 1)
}

func TestResolveNearPassesRadius(t *testing.T) {
	var gotRadius int
	dir := &mock.StationDirectory{Lookup: func(p domain.Coordinates, radiusM int) (domain.ChargingStop, bool, error) {
		gotRadius = radiusM
		return mock.StationAt(p), true, nil
	}}
	r := NewStationResolver(dir, 0, 0, 0)

	res, err := r.ResolveAll(context.Background(), []Candidate{{Index: 1, Point: equatorPoint(50)}}, false)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, res[0].Found)
	assert.Equal(t, DefaultStationRadiusM, gotRadius)
}

func TestResolveNearRejectsInvalidPoint(t *testing.T) {
	dir := &mock.StationDirectory{}
	r := NewStationResolver(dir, 0, 0, 0)

	_, _, err := r.ResolveNear(context.Background(), domain.Coordinates{Lat: 100}, 5000)
	assert.True(t, errors.Is(err, domain.ErrInvalidCoordinate))
	assert.Empty(t, dir.Calls())
}

func TestResolveAllFailFast(t *testing.T) {
	dir := &mock.StationDirectory{Lookup: func(p domain.Coordinates, radiusM int) (domain.ChargingStop, bool, error) {
		return domain.ChargingStop{}, false, nil
	}}
	r := NewStationResolver(dir, 0, 1, 0)

	cands := []Candidate{{Index: 1, Point: equatorPoint(10)}, {Index: 2, Point: equatorPoint(20)}}
	_, err := r.ResolveAll(context.Background(), cands, true)
	assert.True(t, errors.Is(err, domain.ErrStationLookupFailed))
}

func TestReplannerValidation(t *testing.T) {
	router := mock.NewStraightLineRouter(1)
	rp := NewReplanner(router)

	_, err := rp.PlanRoute(context.Background(), []domain.Coordinates{equatorPoint(0)})
	assert.Error(t, err)

	_, err = rp.PlanRoute(context.Background(), []domain.Coordinates{equatorPoint(0), {Lat: 0, Lon: 200}})
	assert.True(t, errors.Is(err, domain.ErrInvalidCoordinate))
	assert.Empty(t, router.Calls())

	router.Err = errors.New("503")
	_, err = rp.PlanRoute(context.Background(), []domain.Coordinates{equatorPoint(0), equatorPoint(10)})
	assert.True(t, errors.Is(err, domain.ErrRoutingUnavailable))
}
