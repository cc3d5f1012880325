package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leonardotrapani/soapscribe/internal/apperr"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind   apperr.Kind `json:"kind"`
	Reason string      `json:"reason"`
}

// WriteJSON writes data as a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeError maps err to its kind's status and the {"error": {...}} body
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}

	WriteJSON(w, status, errorBody{Error: errorDetail{
		Kind:   kind,
		Reason: apperr.ReasonOf(err),
	}})
}

func errNotFound(path string) error {
	return apperr.Newf(apperr.NotFound, "no route for %s", path)
}
