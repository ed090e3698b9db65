package router

import (
	"net/http"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/handler"
	"github.com/el-rey08/EDHF-logistics/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupAccountRoutes mounts the signup, OTP and profile endpoints of one
// principal kind under prefix. Profile endpoints require role.
func SetupAccountRoutes[P domain.Principal](
	r chi.Router,
	prefix string,
	h *handler.AccountHandler[P],
	auth middleware.Authenticator,
	role string,
	throttle func(http.Handler) http.Handler,
) {
	r.Route(prefix, func(r chi.Router) {
		r.Group(func(public chi.Router) {
			public.Use(throttle)
			public.Post("/signup", h.Signup)
			public.Post("/verify-email", h.VerifyEmail)
			public.Post("/resend-otp", h.ResendOTP)
			public.Post("/login", h.Login)
			public.Post("/forgot-password", h.ForgotPassword)
			public.Post("/reset-password", h.ResetPassword)
		})

		r.Group(func(authed chi.Router) {
			authed.Use(middleware.JWTAuth(auth))
			// Any valid token may be revoked, whatever account kind it names.
			authed.Post("/logout", h.Logout)

			authed.With(middleware.RequireRole(role)).Get("/profile", h.GetProfile)
			authed.With(middleware.RequireRole(role)).Patch("/update-profile", h.UpdateProfile)
			authed.With(middleware.RequireRole(role)).Patch("/change-password", h.ChangePassword)
		})
	})
}
