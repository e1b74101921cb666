package api

import (
	"ev-route-service/internal/api/handlers"
	"ev-route-service/internal/platform/metrics"
	"ev-route-service/internal/ports"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(planner handlers.Planner, catalog ports.VehicleCatalog, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)

	vehicleHandler := &handlers.VehicleHandler{Catalog: catalog}
	planHandler := &handlers.PlanHandler{Planner: planner}

	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/vehicles", vehicleHandler.List)
	r.Get("/vehicles/{id}", vehicleHandler.Get)
	r.Post("/plans", planHandler.Plan)

	return r
}
