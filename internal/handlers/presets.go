package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"media-transcoder/internal/presets"
)

// ListPresets returns the preset catalogue.
// GET /api/presets
func (h *Handlers) ListPresets(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSONStatus(w, http.StatusOK, presets.All())
}

// GetPreset returns one preset by case-insensitive name.
// GET /api/presets/{name}
func (h *Handlers) GetPreset(w http.ResponseWriter, r *http.Request) {
	p, ok := presets.Lookup(mux.Vars(r)["name"])
	if !ok {
		writeJSONError(w, "preset not found", http.StatusNotFound)
		return
	}
	writeJSONStatus(w, http.StatusOK, p)
}
