package services

import (
	"errors"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/geo"
	"math"
	"reflect"
	"testing"
)

// kmPerDegree is the length of one degree of longitude on the equator.
var kmPerDegree = geo.EarthRadiusKm * math.Pi / 180

// equatorLine builds hops+1 equally spaced points along the equator.
func equatorLine(t *testing.T, hopKm float64, hops int) domain.RoutePolyline {
	t.Helper()
	pts := make([]domain.Coordinates, 0, hops+1)
	for i := 0; i <= hops; i++ {
		pts = append(pts, domain.Coordinates{Lat: 0, Lon: float64(i) * hopKm / kmPerDegree})
	}
	line, err := domain.NewRoutePolyline(pts)
	if err != nil {
		t.Fatalf("NewRoutePolyline: %v", err)
	}
	return line
}

func TestSegmentRouteShorterThanRange(t *testing.T) {
	line := equatorLine(t, 10, 5)

	got, err := SegmentRoute(line, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("candidates = %d, want 0", len(got))
	}
}

func TestSegmentRouteExactlyRange(t *testing.T) {
	line := equatorLine(t, 5, 20)
	total, err := geo.PathLength(line.Points())
	if err != nil {
		t.Fatalf("PathLength: %v", err)
	}

	got, err := SegmentRoute(line, total)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("candidates = %d, want 1", len(got))
	}
	if got[0].Index != 19 {
		t.Fatalf("candidate index = %d, want 19", got[0].Index)
	}
}

// A sum that lands exactly on the range counts as reaching it. On a 10 point
// line of 9 identical hops with the range equal to three hops, the threshold
// is hit at pairs (2,3), (5,6) and (8,9): three candidates, the last one on
// the point before the destination. This is why the ~300 km scenario below
// uses 33 km hops and not an exact third of the range.
func TestSegmentRouteExactTieOnEveryThirdHop(t *testing.T) {
	a := domain.Coordinates{Lat: 0, Lon: 0}
	b := domain.Coordinates{Lat: 0, Lon: (100.0 / 3) / kmPerDegree}
	pts := make([]domain.Coordinates, 0, 10)
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			pts = append(pts, a)
		} else {
			pts = append(pts, b)
		}
	}
	line, err := domain.NewRoutePolyline(pts)
	if err != nil {
		t.Fatalf("NewRoutePolyline: %v", err)
	}

	// Going back and forth between a and b makes every hop the same float,
	// so summing three of them reproduces the accumulator exactly.
	hop, err := geo.Distance(a, b)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	rangeKm := 0.0
	for i := 0; i < 3; i++ {
		rangeKm += hop
	}

	got, err := SegmentRoute(line, rangeKm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	idx := make([]int, 0, len(got))
	for _, c := range got {
		idx = append(idx, c.Index)
	}
	if want := []int{2, 5, 8}; !reflect.DeepEqual(idx, want) {
		t.Fatalf("candidate indexes = %v, want %v", idx, want)
	}
}

func TestSegmentRouteThreeHundredKm(t *testing.T) {
	// 10 points, 9 hops of 33 km: the accumulator crosses 100 km on the
	// pairs (3,4) and (7,8), and the last two hops stay below the range.
	line := equatorLine(t, 33, 9)

	got, err := SegmentRoute(line, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2", len(got))
	}

	wantIdx := []int{3, 7}
	wantKm := []float64{99, 231}
	for i, c := range got {
		if c.Index != wantIdx[i] {
			t.Fatalf("candidate %d index = %d, want %d", i, c.Index, wantIdx[i])
		}
		if math.Abs(c.DistanceFromStartKm-wantKm[i]) > 0.01 {
			t.Fatalf("candidate %d distance = %v, want %v", i, c.DistanceFromStartKm, wantKm[i])
		}
		if c.Point != line.At(c.Index) {
			t.Fatalf("candidate %d point = %v, want %v", i, c.Point, line.At(c.Index))
		}
	}
}

func TestSegmentRouteResetsWithoutRemainder(t *testing.T) {
	// 60 km hops with R=100: crossing on (1,2) resets to 0, so the next
	// crossing needs two more hops instead of one.
	line := equatorLine(t, 60, 6)

	got, err := SegmentRoute(line, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	idx := make([]int, 0, len(got))
	for _, c := range got {
		idx = append(idx, c.Index)
	}
	if !reflect.DeepEqual(idx, []int{1, 3, 5}) {
		t.Fatalf("indices = %v, want [1 3 5]", idx)
	}
}

func TestSegmentRouteIsIdempotent(t *testing.T) {
	line := equatorLine(t, 17, 40)

	a, err := SegmentRoute(line, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := SegmentRoute(line, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("segmentation not deterministic: %v vs %v", a, b)
	}
}

func TestSegmentRouteInvalidInput(t *testing.T) {
	line := equatorLine(t, 10, 3)

	for _, r := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		if _, err := SegmentRoute(line, r); !errors.Is(err, domain.ErrInvalidRangeThreshold) {
			t.Fatalf("range %v: err = %v, want ErrInvalidRangeThreshold", r, err)
		}
	}

	if _, err := SegmentRoute(domain.RoutePolyline{}, 100); !errors.Is(err, domain.ErrInvalidPolyline) {
		t.Fatalf("empty polyline: err = %v, want ErrInvalidPolyline", err)
	}
}
