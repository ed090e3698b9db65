package router

import (
	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/handler"
	"github.com/el-rey08/EDHF-logistics/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupDeliveryRoutes(mux *chi.Mux, h *handler.DeliveryHandler, auth middleware.Authenticator) {
	mux.Route("/api/deliveries", func(r chi.Router) {
		r.With(middleware.OptionalAuth(auth)).Post("/", h.Create)
		r.Get("/track/{trackingId}", h.Track)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(auth))
			r.With(middleware.RequireRole(domain.RoleUser)).Get("/user", h.ListMine)
			r.With(middleware.RequireRole(domain.RoleRider)).Get("/rider", h.ListMine)
			r.With(middleware.RequireRole(domain.RoleAdmin)).Patch("/{id}/assign", h.Assign)
			r.With(middleware.RequireRole(domain.RoleRider)).Patch("/{id}/status", h.UpdateStatus)
			r.With(middleware.RequireRole(domain.RoleUser, domain.RoleAdmin)).Patch("/{id}/cancel", h.Cancel)
		})

		r.Get("/{id}", h.Get)
	})
}

func SetupNotificationRoutes(mux *chi.Mux, h *handler.NotificationHandler, auth middleware.Authenticator) {
	mux.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(auth))
		r.Get("/api/notifications", h.List)
		r.Patch("/api/notifications/{id}/read", h.MarkRead)
	})
}
