package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/erazemk/eventify/internal/booking"
	"github.com/erazemk/eventify/internal/events"
	"github.com/erazemk/eventify/internal/metrics"
	"github.com/erazemk/eventify/internal/model"
)

// Deps are the services the API is built on.
type Deps struct {
	DB          *sql.DB
	JWTSecret   string
	TokenTTL    time.Duration
	Coordinator *booking.Coordinator
	Events      *events.Service

	// LoginRateLimit caps login attempts per client IP per LoginRateWindow.
	// Zero disables the limit.
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// HealthChecks are reported by /healthz next to the database.
	HealthChecks map[string]Pinger
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, TokenTTL: d.TokenTTL}
	usersHandler := &UsersHandler{DB: d.DB}
	resourcesHandler := &ResourcesHandler{DB: d.DB, Coordinator: d.Coordinator}
	availabilityHandler := &AvailabilityHandler{DB: d.DB, Location: d.Events.Location}
	eventsHandler := &EventsHandler{Events: d.Events}
	bookingsHandler := &BookingsHandler{Events: d.Events}
	healthHandler := &HealthHandler{DB: d.DB, Checks: d.HealthChecks}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireOrganizer := RequireRole(model.RoleOrganizer)

	// Public: login, health, metrics.
	var login http.Handler = http.HandlerFunc(authHandler.Login)
	if d.LoginRateLimit > 0 {
		login = httprate.Limit(d.LoginRateLimit, d.LoginRateWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				jsonError(w, http.StatusTooManyRequests, "too many login attempts")
			}),
		)(login)
	}
	mux.Handle("POST /api/auth/login", login)
	mux.HandleFunc("GET /healthz", healthHandler.Check)
	mux.Handle("GET /metrics", metrics.Handler())

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Resources: read (all roles), write (admin).
	mux.Handle("GET /api/resources", authMW(http.HandlerFunc(resourcesHandler.List)))
	mux.Handle("POST /api/resources", authMW(requireAdmin(http.HandlerFunc(resourcesHandler.Create))))
	mux.Handle("GET /api/resources/{id}", authMW(http.HandlerFunc(resourcesHandler.Get)))
	mux.Handle("PUT /api/resources/{id}", authMW(requireAdmin(http.HandlerFunc(resourcesHandler.Update))))
	mux.Handle("PUT /api/resources/{id}/quantity", authMW(requireAdmin(http.HandlerFunc(resourcesHandler.SetQuantity))))
	mux.Handle("DELETE /api/resources/{id}", authMW(requireAdmin(http.HandlerFunc(resourcesHandler.Delete))))
	mux.Handle("PUT /api/resources/{id}/image", authMW(requireAdmin(http.HandlerFunc(resourcesHandler.UploadImage))))
	mux.Handle("GET /api/resources/{id}/image", authMW(http.HandlerFunc(resourcesHandler.GetImage)))
	mux.Handle("GET /api/resources/{id}/bookings", authMW(http.HandlerFunc(resourcesHandler.Bookings)))

	// Availability (all roles, read only).
	mux.Handle("GET /api/resources/{id}/availability", authMW(http.HandlerFunc(availabilityHandler.Timeline)))
	mux.Handle("POST /api/resources/check-availability", authMW(http.HandlerFunc(availabilityHandler.Check)))

	// Events: read (all roles), write (organizer+).
	mux.Handle("GET /api/events", authMW(http.HandlerFunc(eventsHandler.List)))
	mux.Handle("POST /api/events", authMW(requireOrganizer(http.HandlerFunc(eventsHandler.Create))))
	mux.Handle("GET /api/events/{id}", authMW(http.HandlerFunc(eventsHandler.Get)))
	mux.Handle("PUT /api/events/{id}", authMW(requireOrganizer(http.HandlerFunc(eventsHandler.Update))))
	mux.Handle("DELETE /api/events/{id}", authMW(requireOrganizer(http.HandlerFunc(eventsHandler.Delete))))
	mux.Handle("GET /api/events/{id}/bookings", authMW(http.HandlerFunc(eventsHandler.Bookings)))

	// Direct bookings (organizer+).
	mux.Handle("POST /api/bookings", authMW(requireOrganizer(http.HandlerFunc(bookingsHandler.Create))))
	mux.Handle("DELETE /api/bookings", authMW(requireOrganizer(http.HandlerFunc(bookingsHandler.Release))))

	return RequestIDMiddleware(LoggingMiddleware(metrics.Middleware(mux)))
}
