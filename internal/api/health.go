package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is a dependency whose liveness is reported by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the service can reach its dependencies.
type HealthHandler struct {
	DB *sql.DB
	// Checks are optional named dependencies, such as the lock backend.
	Checks map[string]Pinger
}

// Check handles GET /healthz.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"database": "ok"}
	healthy := true
	if err := h.DB.PingContext(ctx); err != nil {
		slog.Error("health check failed", "dependency", "database", "error", err)
		status["database"] = "unavailable"
		healthy = false
	}
	for name, p := range h.Checks {
		status[name] = "ok"
		if err := p.Ping(ctx); err != nil {
			slog.Error("health check failed", "dependency", name, "error", err)
			status[name] = "unavailable"
			healthy = false
		}
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	jsonResponse(w, code, status)
}
