package handlers

import (
	"context"
	"encoding/json"
	"ev-route-service/internal/api/dto"
	"ev-route-service/internal/domain"
	"io"
	"net/http"
	"strings"
)

const maxPlanBodyBytes = 1 << 16

// Planner is the planning service the handler depends on.
type Planner interface {
	PlanChargingRoute(ctx context.Context, origin, destination domain.Coordinates, vehicleID string) (*domain.RoutePlan, error)
	PlanChargingRouteByPlace(ctx context.Context, originPlace, destinationPlace, vehicleID string) (*domain.RoutePlan, error)
}

type PlanHandler struct {
	Planner Planner
}

// Plan computes a charging-aware route for one vehicle between two places
// or two coordinates.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPlanBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	vehicleID := strings.TrimSpace(req.VehicleID)
	if vehicleID == "" {
		writeError(w, r, http.StatusBadRequest, "vehicle_id is required")
		return
	}

	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)
	byPlace := origin != "" || destination != ""
	byCoords := req.OriginCoords != nil || req.DestinationCoords != nil

	var (
		plan *domain.RoutePlan
		err  error
	)
	switch {
	case byPlace && byCoords:
		writeError(w, r, http.StatusBadRequest, "use either origin/destination or origin_coords/destination_coords")
		return
	case byCoords:
		if req.OriginCoords == nil || req.DestinationCoords == nil {
			writeError(w, r, http.StatusBadRequest, "origin_coords and destination_coords are both required")
			return
		}
		plan, err = h.Planner.PlanChargingRoute(
			r.Context(),
			domain.Coordinates{Lat: req.OriginCoords.Lat, Lon: req.OriginCoords.Lon},
			domain.Coordinates{Lat: req.DestinationCoords.Lat, Lon: req.DestinationCoords.Lon},
			vehicleID,
		)
	case origin != "" && destination != "":
		plan, err = h.Planner.PlanChargingRouteByPlace(r.Context(), origin, destination, vehicleID)
	default:
		writeError(w, r, http.StatusBadRequest, "origin and destination are required")
		return
	}

	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewPlanResponse(plan))
}
