package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/eventify/internal/auth"
	"github.com/erazemk/eventify/internal/events"
	"github.com/erazemk/eventify/internal/model"
)

// BookingsHandler books and releases single resources on existing events.
type BookingsHandler struct {
	Events *events.Service
}

type bookRequest struct {
	ResourceID int64     `json:"resource_id"`
	EventID    int64     `json:"event_id"`
	Quantity   int       `json:"quantity"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

type releaseResponse struct {
	Released int `json:"released"`
}

// Create handles POST /api/bookings.
func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ResourceID < 1 || req.EventID < 1 {
		jsonError(w, http.StatusBadRequest, "resource_id and event_id required")
		return
	}
	if !h.authorize(w, r, req.EventID) {
		return
	}

	b, err := h.Events.Book(r.Context(), req.EventID, req.ResourceID, req.Quantity, req.Start, req.End)
	if err != nil {
		writeError(w, r, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("booking created", "user", claims.Username, "booking_id", b.ID,
		"resource_id", b.ResourceID, "event_id", b.EventID, "quantity", b.Quantity)
	jsonResponse(w, http.StatusCreated, b)
}

// Release handles DELETE /api/bookings?resource_id=&event_id=.
func (h *BookingsHandler) Release(w http.ResponseWriter, r *http.Request) {
	resourceID, err := queryID(r, "resource_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	eventID, err := queryID(r, "event_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !h.authorize(w, r, eventID) {
		return
	}

	n, err := h.Events.Release(r.Context(), eventID, resourceID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("booking released", "user", claims.Username, "resource_id", resourceID,
		"event_id", eventID, "released", n)
	jsonResponse(w, http.StatusOK, releaseResponse{Released: n})
}

// authorize checks that the event exists and that the caller may manage it.
func (h *BookingsHandler) authorize(w http.ResponseWriter, r *http.Request, eventID int64) bool {
	e, err := h.Events.Get(r.Context(), eventID)
	if err != nil {
		writeError(w, r, err)
		return false
	}
	if !canManage(GetClaims(r.Context()), e) {
		jsonError(w, http.StatusForbidden, "not the event organizer")
		return false
	}
	return true
}

func canManage(claims *auth.Claims, e *model.Event) bool {
	if claims.HasRole(model.RoleAdmin) {
		return true
	}
	return e.OrganizerID != nil && *e.OrganizerID == claims.UserID
}
