package handlers

import (
	"ev-route-service/internal/domain"
	"net/http"
	"testing"
)

func TestStatusForReason(t *testing.T) {
	cases := map[domain.Reason]int{
		domain.ReasonInvalidCoordinate:     http.StatusBadRequest,
		domain.ReasonInvalidVehicleProfile: http.StatusBadRequest,
		domain.ReasonVehicleNotFound:       http.StatusNotFound,
		domain.ReasonLocationNotFound:      http.StatusNotFound,
		domain.ReasonRoutingUnavailable:    http.StatusBadGateway,
		domain.ReasonStationLookupFailed:   http.StatusBadGateway,
		domain.ReasonTimeout:               http.StatusGatewayTimeout,
		domain.ReasonInternal:              http.StatusInternalServerError,
	}
	for reason, want := range cases {
		if got := statusForReason(reason); got != want {
			t.Fatalf("statusForReason(%s) = %d, want %d", reason, got, want)
		}
	}
}
