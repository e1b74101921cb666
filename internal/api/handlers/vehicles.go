package handlers

import (
	"ev-route-service/internal/api/dto"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/ports"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// VehicleHandler exposes read-only vehicle catalog endpoints.
type VehicleHandler struct {
	Catalog ports.VehicleCatalog
}

func toVehicleResponse(v domain.VehicleRangeProfile) dto.VehicleResponse {
	return dto.VehicleResponse{
		ID:               v.ID,
		Name:             v.DisplayName(),
		Make:             v.Make,
		Model:            v.Model,
		Version:          v.Version,
		BatteryUsableKWh: v.BatteryUsableKWh,
		BestRangeKm:      v.BestRangeKm,
		WorstRangeKm:     v.WorstRangeKm,
	}
}

func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	vs, err := h.Catalog.ListVehicles(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.ListVehiclesResponse{
		Vehicles: make([]dto.VehicleResponse, 0, len(vs)),
	}
	for _, v := range vs {
		res.Vehicles = append(res.Vehicles, toVehicleResponse(v))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "vehicle id is required")
		return
	}

	v, err := h.Catalog.GetVehicle(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toVehicleResponse(v))
}
