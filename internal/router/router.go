package router

import (
	"net/http"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/handler"
	"github.com/el-rey08/EDHF-logistics/internal/middleware"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/el-rey08/EDHF-logistics/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
)

// Handlers bundles everything the API serves.
type Handlers struct {
	Users         *handler.AccountHandler[*domain.User]
	Riders        *handler.AccountHandler[*domain.Rider]
	Companies     *handler.AccountHandler[*domain.Company]
	Deliveries    *handler.DeliveryHandler
	RiderOps      *handler.RiderHandler
	Notifications *handler.NotificationHandler
	Health        *handler.HealthHandler
}

// New builds the root router with the common middleware chain.
// limiter guards the unauthenticated account endpoints; nil disables it.
func New(h Handlers, auth middleware.Authenticator, limiter middleware.Limiter, m *metrics.MetricsManager, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.Metrics(m))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Route not found"}`))
	})

	throttle := func(next http.Handler) http.Handler { return next }
	if limiter != nil {
		throttle = middleware.RateLimit(limiter, log)
	}

	r.Get("/healthz", h.Health.Check)

	SetupAccountRoutes(r, "/api/users", h.Users, auth, domain.RoleUser, throttle)
	SetupAccountRoutes(r, "/api/riders", h.Riders, auth, domain.RoleRider, throttle)
	SetupAccountRoutes(r, "/api/companies", h.Companies, auth, domain.RoleAdmin, throttle)
	SetupRiderRoutes(r, h.RiderOps, auth)
	SetupDeliveryRoutes(r, h.Deliveries, auth)
	SetupNotificationRoutes(r, h.Notifications, auth)
	return r
}
