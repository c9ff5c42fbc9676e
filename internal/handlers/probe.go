package handlers

import (
	"errors"
	"net/http"
	"strings"

	"media-transcoder/internal/logging"
	"media-transcoder/internal/probe"
)

// ProbeRequest is the body of POST /api/probe.
type ProbeRequest struct {
	Input string `json:"input"`
}

// Probe returns the stream metadata of an input.
// POST /api/probe
func (h *Handlers) Probe(w http.ResponseWriter, r *http.Request) {
	var req ProbeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.Input = strings.TrimSpace(req.Input)
	if req.Input == "" {
		writeJSONError(w, "input is required", http.StatusBadRequest)
		return
	}

	path, err := h.storage.FetchToLocal(r.Context(), req.Input)
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() {
		if err := h.storage.Release(path); err != nil {
			logging.Warn("Failed to release probed input: %v", err)
		}
	}()

	result, err := h.prober.Probe(r.Context(), path)
	if err != nil {
		var pe *probe.Error
		if errors.As(err, &pe) {
			logging.Warn("Probe of %s failed: %v", req.Input, err)
			writeJSONError(w, "could not read media metadata", http.StatusUnprocessableEntity)
			return
		}
		writeError(w, err)
		return
	}

	writeJSONStatus(w, http.StatusOK, result)
}
