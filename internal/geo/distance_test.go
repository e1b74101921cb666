package geo

import (
	"errors"
	"ev-route-service/internal/domain"
	"math"
	"testing"
)

func TestDistanceSymmetricAndZero(t *testing.T) {
	points := []domain.Coordinates{
		{Lat: 48.8566, Lon: 2.3522},
		{Lat: 45.7640, Lon: 4.8357},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 0, Lon: 179.9},
		{Lat: 0, Lon: -179.9},
		{Lat: 89.9, Lon: 0},
	}

	for _, a := range points {
		d, err := Distance(a, a)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d != 0 {
			t.Errorf("Distance(%v, %v) = %v, want 0", a, a, d)
		}

		for _, b := range points {
			ab, _ := Distance(a, b)
			ba, _ := Distance(b, a)
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("Distance not symmetric: %v -> %v = %v, reverse = %v", a, b, ab, ba)
			}
		}
	}
}

func TestDistanceKnownValue(t *testing.T) {
	paris := domain.Coordinates{Lat: 48.8566, Lon: 2.3522}
	lyon := domain.Coordinates{Lat: 45.7640, Lon: 4.8357}

	d, err := Distance(paris, lyon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Great-circle Paris -> Lyon is roughly 392 km.
	if d < 390 || d > 394 {
		t.Fatalf("Distance(paris, lyon) = %.2f km, want ~392 km", d)
	}

	// One degree of longitude on the equator.
	d, _ = Distance(domain.Coordinates{}, domain.Coordinates{Lon: 1})
	want := EarthRadiusKm * math.Pi / 180
	if math.Abs(d-want) > 1e-9 {
		t.Fatalf("equator degree = %v, want %v", d, want)
	}
}

func TestDistanceRejectsInvalidCoordinates(t *testing.T) {
	_, err := Distance(domain.Coordinates{Lat: 91}, domain.Coordinates{})
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("err = %v, want ErrInvalidCoordinate", err)
	}

	_, err = Distance(domain.Coordinates{}, domain.Coordinates{Lon: -181})
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("err = %v, want ErrInvalidCoordinate", err)
	}
}

func TestNearestIndex(t *testing.T) {
	pts := []domain.Coordinates{{Lon: 0}, {Lon: 1}, {Lon: 2}, {Lon: 3}}

	if got := NearestIndex(pts, domain.Coordinates{Lat: 0.01, Lon: 2.1}, 0); got != 2 {
		t.Fatalf("NearestIndex = %d, want 2", got)
	}
	if got := NearestIndex(pts, domain.Coordinates{Lon: 0}, 2); got != 2 {
		t.Fatalf("NearestIndex from 2 = %d, want 2", got)
	}
	if got := NearestIndex(pts, domain.Coordinates{}, 9); got != -1 {
		t.Fatalf("NearestIndex out of range = %d, want -1", got)
	}
}
