package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/eventify/internal/model"
	"github.com/erazemk/eventify/internal/requestid"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// capacityBody is the 409 body for a capacity rejection.
type capacityBody struct {
	Error      string `json:"error"`
	ResourceID int64  `json:"resource_id"`
	Resource   string `json:"resource"`
	Requested  int    `json:"requested"`
	Available  int    `json:"available"`
}

// writeError maps domain errors to HTTP statuses. Anything unrecognised is
// logged and reported as a 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	var nf *model.NotFoundError
	var cerr *model.CapacityError
	var conflict *model.ConflictError

	switch {
	case errors.As(err, &verr):
		jsonError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &nf):
		jsonError(w, http.StatusNotFound, nf.Error())
	case errors.As(err, &cerr):
		jsonResponse(w, http.StatusConflict, capacityBody{
			Error:      cerr.Error(),
			ResourceID: cerr.ResourceID,
			Resource:   cerr.ResourceName,
			Requested:  cerr.Requested,
			Available:  cerr.Free,
		})
	case errors.As(err, &conflict):
		jsonError(w, http.StatusConflict, conflict.Error())
	default:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestid.From(r.Context()),
			"error", err,
		)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, model.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

// queryID parses a positive integer query parameter.
func queryID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil || id < 1 {
		return 0, model.Invalid(name, "must be a positive integer")
	}
	return id, nil
}
