package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"media-transcoder/internal/command"
	"media-transcoder/internal/jobs"
	"media-transcoder/internal/logging"
	"media-transcoder/internal/storage"
	"media-transcoder/internal/transcoder"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatus writes v with the given status code.
func writeJSONStatus(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatus(w, statusCode, map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}

// writeError maps domain errors to status codes. Messages of unexpected
// errors are logged, not returned.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		writeJSONError(w, "job not found", http.StatusNotFound)
	case command.IsConfigError(err):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotFound):
		writeJSONError(w, "input not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrOutsideRoot):
		writeJSONError(w, "input outside allowed root", http.StatusBadRequest)
	case errors.Is(err, jobs.ErrInvalidTransition), errors.Is(err, transcoder.ErrNotRunning):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, transcoder.ErrShuttingDown):
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		logging.Error("Request failed: %v", err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
	}
}
