package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/eventify/internal/events"
	"github.com/erazemk/eventify/internal/model"
)

// EventsHandler handles event endpoints.
type EventsHandler struct {
	Events *events.Service
}

// List handles GET /api/events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Events.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, list)
}

// Get handles GET /api/events/{id}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	e, err := h.Events.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, e)
}

// Create handles POST /api/events. The caller becomes the organizer.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in events.Input
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	organizer := claims.UserID
	e, err := h.Events.Create(r.Context(), in, &organizer)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("event created", "user", claims.Username, "event", e.Title, "event_id", e.ID,
		"resources", len(e.Resources))
	jsonResponse(w, http.StatusCreated, e)
}

// Update handles PUT /api/events/{id}.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedEvent(w, r)
	if !ok {
		return
	}

	var in events.Input
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := h.Events.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("event updated", "user", claims.Username, "event", e.Title, "event_id", e.ID)
	jsonResponse(w, http.StatusOK, e)
}

// Delete handles DELETE /api/events/{id}.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedEvent(w, r)
	if !ok {
		return
	}

	if err := h.Events.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("event deleted", "user", claims.Username, "event_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

// Bookings handles GET /api/events/{id}/bookings.
func (h *EventsHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	if _, err := h.Events.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	bookings, err := h.Events.Coordinator.ListEventBookings(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	jsonResponse(w, http.StatusOK, bookings)
}

// ownedEvent parses the event id and checks that the caller may change the
// event: admins may change any event, organizers only their own.
func (h *EventsHandler) ownedEvent(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid event id")
		return 0, false
	}

	e, err := h.Events.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return 0, false
	}
	if !canManage(GetClaims(r.Context()), e) {
		jsonError(w, http.StatusForbidden, "not the event organizer")
		return 0, false
	}
	return id, true
}
