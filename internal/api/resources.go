package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/eventify/internal/booking"
	"github.com/erazemk/eventify/internal/imaging"
	"github.com/erazemk/eventify/internal/model"
	"github.com/erazemk/eventify/internal/store"
)

// ResourcesHandler handles resource endpoints.
type ResourcesHandler struct {
	DB          *sql.DB
	Coordinator *booking.Coordinator
}

type quantityRequest struct {
	TotalQuantity int `json:"total_quantity"`
}

type deleteResourceResponse struct {
	Message        string  `json:"message"`
	AffectedEvents []int64 `json:"affected_events"`
}

// List handles GET /api/resources.
func (h *ResourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !model.ValidCategory(category) {
		jsonError(w, http.StatusBadRequest, "unknown category")
		return
	}

	resources, err := store.ListResources(r.Context(), h.DB, category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if resources == nil {
		resources = []model.Resource{}
	}
	jsonResponse(w, http.StatusOK, resources)
}

// Get handles GET /api/resources/{id}. The response includes the
// resource's bookings.
func (h *ResourcesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	res, err := store.GetResource(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res == nil {
		jsonError(w, http.StatusNotFound, "resource not found")
		return
	}

	res.Bookings, err = store.ListBookings(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// Create handles POST /api/resources.
func (h *ResourcesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in store.ResourceInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := store.CreateResource(r.Context(), h.DB, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("resource created", "user", claims.Username, "resource", res.Name, "total", res.TotalQuantity)
	jsonResponse(w, http.StatusCreated, res)
}

// Update handles PUT /api/resources/{id}. Capacity is changed separately.
func (h *ResourcesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	var in store.ResourceInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := store.UpdateResource(r.Context(), h.DB, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("resource updated", "user", claims.Username, "resource", res.Name)
	jsonResponse(w, http.StatusOK, res)
}

// SetQuantity handles PUT /api/resources/{id}/quantity.
func (h *ResourcesHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Coordinator.SetTotalQuantity(r.Context(), id, req.TotalQuantity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("resource capacity changed", "user", claims.Username, "resource", res.Name,
		"total", res.TotalQuantity, "available", res.AvailableQuantity)
	jsonResponse(w, http.StatusOK, res)
}

// Delete handles DELETE /api/resources/{id}.
func (h *ResourcesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	eventIDs, err := h.Coordinator.DeleteResource(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("resource deleted", "user", claims.Username, "resource_id", id, "affected_events", len(eventIDs))
	jsonResponse(w, http.StatusOK, deleteResourceResponse{Message: "resource deleted", AffectedEvents: eventIDs})
}

// UploadImage handles PUT /api/resources/{id}/image.
func (h *ResourcesHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUpload+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUpload); err != nil {
		jsonError(w, http.StatusBadRequest, "image too large or invalid form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.NormalizePhoto(file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.SetResourceImage(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		writeError(w, r, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("resource image uploaded", "user", claims.Username, "resource_id", id,
		"width", photo.Width, "height", photo.Height)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/resources/{id}/image.
func (h *ResourcesHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	data, mime, err := store.GetResourceImage(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// Bookings handles GET /api/resources/{id}/bookings.
func (h *ResourcesHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	bookings, err := h.Coordinator.ListResourceBookings(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	jsonResponse(w, http.StatusOK, bookings)
}
