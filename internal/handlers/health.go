package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"media-transcoder/internal/logging"
	"media-transcoder/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

const readyTimeout = 2 * time.Second

// HealthResponse contains the health check response
type HealthResponse struct {
	Status      string         `json:"status"`
	Ready       bool           `json:"ready"`
	Version     string         `json:"version"`
	Uptime      string         `json:"uptime"`
	Backend     string         `json:"backend,omitempty"`
	RunningJobs int            `json:"runningJobs"`
	Jobs        map[string]int `json:"jobs"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

func (h *Handlers) checkReady(ctx context.Context) error {
	if h.ready == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	return h.ready(ctx)
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int)
	for _, j := range h.transcoder.ListJobs() {
		counts[string(j.Status)]++
	}

	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        true,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Backend:      h.backend,
		RunningJobs:  h.transcoder.Running(),
		Jobs:         counts,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	code := http.StatusOK
	if err := h.checkReady(r.Context()); err != nil {
		logging.Warn("Health check: backend not ready: %v", err)
		response.Status = statusDegraded
		response.Ready = false
		code = http.StatusServiceUnavailable
	}

	writeJSONStatus(w, code, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the service is ready to accept traffic
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.checkReady(r.Context()); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
		})
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
