package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/eventify/internal/interval"
	"github.com/erazemk/eventify/internal/model"
	"github.com/erazemk/eventify/internal/store"
)

// AvailabilityHandler answers read-only availability queries.
type AvailabilityHandler struct {
	DB       *sql.DB
	Location *time.Location
}

type checkRequest struct {
	Resources []model.ResourceRequest `json:"resources"`
	Date      string                  `json:"date"`
	StartTime string                  `json:"start_time"`
	EndTime   string                  `json:"end_time"`
}

type timelineResponse struct {
	ResourceID int64        `json:"resource_id"`
	Date       string       `json:"date"`
	Slots      []model.Slot `json:"slots"`
}

// Timeline handles GET /api/resources/{id}/availability.
func (h *AvailabilityHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	q := r.URL.Query()
	date := q.Get("date")
	day, err := interval.ParseDate(date, h.Location)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slots, err := slotsFromQuery(q.Get("from"), q.Get("to"), q.Get("step"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	timeline, err := store.DailyTimeline(r.Context(), h.DB, id, day, slots)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, timelineResponse{ResourceID: id, Date: date, Slots: timeline})
}

// slotsFromQuery builds slot offsets from optional HH:MM bounds and a step
// in minutes. With no parameters it returns the default hourly slots.
func slotsFromQuery(from, to, step string) ([]time.Duration, error) {
	if from == "" && to == "" && step == "" {
		return interval.DefaultSlots, nil
	}

	first, err := clockOffset(from, 8*time.Hour)
	if err != nil {
		return nil, model.Invalid("from", "must be HH:MM")
	}
	last, err := clockOffset(to, 20*time.Hour)
	if err != nil {
		return nil, model.Invalid("to", "must be HH:MM")
	}
	if last < first {
		return nil, model.Invalid("to", "must not be before from")
	}

	stepMinutes := 60
	if step != "" {
		stepMinutes, err = strconv.Atoi(step)
		if err != nil || stepMinutes < 1 || stepMinutes > 24*60 {
			return nil, model.Invalid("step", "must be minutes between 1 and 1440")
		}
	}
	return interval.HourlySlots(first, last, time.Duration(stepMinutes)*time.Minute), nil
}

func clockOffset(clock string, fallback time.Duration) (time.Duration, error) {
	if clock == "" {
		return fallback, nil
	}
	t, err := time.Parse(interval.ClockLayout, clock)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Check handles POST /api/resources/check-availability.
func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, end, err := interval.Span(req.Date, req.StartTime, req.EndTime, h.Location)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := store.CheckAvailability(r.Context(), h.DB, req.Resources, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, report)
}
