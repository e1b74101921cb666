package handlers

import (
	"encoding/json"
	"ev-route-service/internal/api/dto"
	"ev-route-service/internal/domain"
	"net/http"

	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg})
}

// statusForReason maps planning failure reasons onto HTTP status codes.
func statusForReason(reason domain.Reason) int {
	switch reason {
	case domain.ReasonInvalidCoordinate,
		domain.ReasonInvalidPolyline,
		domain.ReasonInvalidRangeThreshold,
		domain.ReasonInvalidVehicleProfile:
		return http.StatusBadRequest
	case domain.ReasonVehicleNotFound, domain.ReasonLocationNotFound:
		return http.StatusNotFound
	case domain.ReasonRoutingUnavailable, domain.ReasonStationLookupFailed:
		return http.StatusBadGateway
	case domain.ReasonTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError reports err with the status for its reason. Internal
// errors are logged and hidden from the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	reason := domain.ReasonOf(err)
	status := statusForReason(reason)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		msg = "internal server error"
	}
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg, Reason: string(reason)})
}
