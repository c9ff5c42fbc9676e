package handlers

import (
	"github.com/gorilla/mux"
)

// Register adds every route to r.
func (h *Handlers) Register(r *mux.Router) {
	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET").Name("health")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Jobs
	api.HandleFunc("/jobs", h.CreateJob).Methods("POST")
	api.HandleFunc("/jobs", h.ListJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}", h.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}", h.DeleteJob).Methods("DELETE")
	api.HandleFunc("/jobs/{id}/cancel", h.CancelJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/output", h.GetJobOutput).Methods("GET")
	api.HandleFunc("/jobs/{id}/thumbnails/{index:[0-9]+}", h.GetJobThumbnail).Methods("GET")

	// Presets
	api.HandleFunc("/presets", h.ListPresets).Methods("GET")
	api.HandleFunc("/presets/{name}", h.GetPreset).Methods("GET")

	// Probe
	api.HandleFunc("/probe", h.Probe).Methods("POST")
}
