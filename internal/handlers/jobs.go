package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"media-transcoder/internal/encoding"
	"media-transcoder/internal/jobs"
	"media-transcoder/internal/logging"
	"media-transcoder/internal/mediatypes"
	"media-transcoder/internal/presets"
	"media-transcoder/internal/storage"
)

// CreateJobRequest is the body of POST /api/jobs.
type CreateJobRequest struct {
	Input     string             `json:"input"`
	Type      string             `json:"type,omitempty"`
	Preset    string             `json:"preset,omitempty"`
	Overrides encoding.Overrides `json:"overrides"`
	// Thumbnails configures a thumbnail job. For transcode jobs use
	// overrides.thumbnails.
	Thumbnails *encoding.ThumbnailSpec `json:"thumbnails,omitempty"`
}

// CreateJob creates a job and starts it.
// POST /api/jobs
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	req.Input = strings.TrimSpace(req.Input)
	if req.Input == "" {
		writeJSONError(w, "input is required", http.StatusBadRequest)
		return
	}
	typ, err := jobs.ParseType(req.Type)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Preset != "" {
		if _, ok := presets.Lookup(req.Preset); !ok {
			logging.Warn("Unknown preset %q, using defaults", req.Preset)
		}
	}

	job, err := h.transcoder.CreateJob(r.Context(), req.Input, typ, req.Preset)
	if err != nil {
		writeError(w, err)
		return
	}

	switch typ {
	case jobs.TypeThumbnail:
		spec := encoding.ThumbnailSpec{Count: 1}
		if req.Thumbnails != nil {
			spec = *req.Thumbnails
		}
		err = h.transcoder.RunThumbnails(job.ID, req.Input, spec)
	default:
		cfg := presets.Resolve(req.Preset, req.Overrides)
		err = h.transcoder.RunTranscode(job.ID, req.Input, cfg)
	}
	if err != nil {
		// Rejected before anything ran; drop the record.
		if delErr := h.transcoder.DeleteJob(r.Context(), job.ID); delErr != nil {
			logging.Warn("Failed to remove rejected job %s: %v", job.ID, delErr)
		}
		writeError(w, err)
		return
	}

	if current, err := h.transcoder.GetJob(job.ID); err == nil {
		job = current
	}
	w.Header().Set("Location", "/api/jobs/"+job.ID)
	writeJSONStatus(w, http.StatusAccepted, job)
}

// JobListResponse is the body of GET /api/jobs.
type JobListResponse struct {
	Jobs  []*jobs.Job `json:"jobs"`
	Total int         `json:"total"`
}

// ListJobs returns all jobs, newest first. The status query parameter
// filters by status.
// GET /api/jobs
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	status := jobs.Status(r.URL.Query().Get("status"))

	all := h.transcoder.ListJobs()
	out := make([]*jobs.Job, 0, len(all))
	for _, j := range all {
		if status == "" || j.Status == status {
			out = append(out, j)
		}
	}

	writeJSONStatus(w, http.StatusOK, JobListResponse{Jobs: out, Total: len(out)})
}

// GetJob returns one job.
// GET /api/jobs/{id}
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.transcoder.GetJob(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, job)
}

// DeleteJob cancels a job if needed and removes it with its artifacts.
// DELETE /api/jobs/{id}
func (h *Handlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := h.transcoder.DeleteJob(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelJob stops a running job.
// POST /api/jobs/{id}/cancel
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.transcoder.Cancel(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "cancelling", "id": id})
}

// GetJobOutput serves the output of a finished job from local storage.
// GET /api/jobs/{id}/output
func (h *Handlers) GetJobOutput(w http.ResponseWriter, r *http.Request) {
	job, err := h.transcoder.GetJob(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if job.Status != jobs.StatusFinished || job.OutputReference == nil {
		writeJSONError(w, "job has no output yet", http.StatusConflict)
		return
	}
	h.serveArtifact(w, r, *job.OutputReference)
}

// GetJobThumbnail serves one thumbnail of a job, counted from 1.
// GET /api/jobs/{id}/thumbnails/{index}
func (h *Handlers) GetJobThumbnail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	job, err := h.transcoder.GetJob(vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	index, err := strconv.Atoi(vars["index"])
	if err != nil || index < 1 || index > len(job.Thumbnails) {
		writeJSONError(w, "thumbnail not found", http.StatusNotFound)
		return
	}
	h.serveArtifact(w, r, job.Thumbnails[index-1])
}

// serveArtifact streams a local artifact. Remote references are returned
// as JSON for the client to fetch directly.
func (h *Handlers) serveArtifact(w http.ResponseWriter, r *http.Request, ref string) {
	if strings.HasPrefix(ref, storage.MinioScheme) || h.outputs == nil {
		writeJSONStatus(w, http.StatusOK, map[string]string{"reference": ref})
		return
	}

	path, err := h.outputs.ResolveOutput(ref)
	if err != nil {
		if errors.Is(err, storage.ErrOutsideRoot) {
			writeJSONError(w, "artifact not found", http.StatusNotFound)
			return
		}
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", mediatypes.ContentType(path))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeFile(w, r, path)
}
