package router

import (
	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/handler"
	"github.com/el-rey08/EDHF-logistics/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRiderRoutes(mux *chi.Mux, h *handler.RiderHandler, auth middleware.Authenticator) {
	mux.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(auth))

		r.With(middleware.RequireRole(domain.RoleAdmin)).Get("/api/companies/riders/pending", h.ListPending)
		r.With(middleware.RequireRole(domain.RoleAdmin)).Patch("/api/companies/riders/{id}/approve", h.Approve)
		r.With(middleware.RequireRole(domain.RoleAdmin)).Patch("/api/companies/riders/{id}/decline", h.Decline)

		r.Get("/api/users/available-riders", h.ListAvailable)

		r.With(middleware.RequireRole(domain.RoleRider)).Patch("/api/riders/availability", h.SetAvailability)
		r.With(middleware.RequireRole(domain.RoleRider)).Post("/api/riders/location", h.UpdateLocation)
		r.Get("/api/riders/{id}/location", h.LastLocation)
		r.With(middleware.RequireRole(domain.RoleUser)).Get("/api/riders/locations/stream", h.StreamLocations)
	})
}
