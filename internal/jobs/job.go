package jobs

import (
	"errors"
	"fmt"
	"time"

	"media-transcoder/internal/probe"
)

// Status is a job's position in the state machine.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusUploading  Status = "uploading"
	StatusFinished   Status = "finished"
	StatusError      Status = "error"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusQueued, StatusProcessing, StatusUploading, StatusFinished, StatusError}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusError
}

// IsActive reports whether a supervisor owns the job.
func (s Status) IsActive() bool {
	return s == StatusProcessing || s == StatusUploading
}

// Type is the kind of work a job performs.
type Type string

const (
	TypeTranscode Type = "transcode"
	TypeThumbnail Type = "thumbnail"
)

// ParseType validates a job type string.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeTranscode, TypeThumbnail:
		return Type(s), nil
	case "":
		return TypeTranscode, nil
	default:
		return "", fmt.Errorf("unknown job type %q", s)
	}
}

var (
	// ErrNotFound is returned for unknown or deleted job ids.
	ErrNotFound = errors.New("job not found")
	// ErrInvalidTransition guards the state machine.
	ErrInvalidTransition = errors.New("invalid status transition")
)

var transitions = map[Status][]Status{
	StatusQueued:     {StatusProcessing, StatusError},
	StatusProcessing: {StatusProcessing, StatusUploading, StatusFinished, StatusError},
	StatusUploading:  {StatusFinished, StatusError},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Job is the durable record of one unit of work.
type Job struct {
	ID               string        `json:"id"`
	Input            string        `json:"input"`
	Type             Type          `json:"type"`
	Status           Status        `json:"status"`
	Progress         int           `json:"progress"`
	OutputReference  *string       `json:"outputReference"`
	CreatedAt        time.Time     `json:"createdAt"`
	StartedAt        *time.Time    `json:"startedAt,omitempty"`
	UpdatedAt        time.Time     `json:"updatedAt"`
	Detail           *string       `json:"detail"`
	InputSize        int64         `json:"inputSize"`
	OutputSize       int64         `json:"outputSize"`
	CompressionRatio float64       `json:"compressionRatio"`
	Bitrate          string        `json:"bitrate,omitempty"`
	Preset           string        `json:"preset,omitempty"`
	Warnings         []string      `json:"warnings,omitempty"`
	Thumbnails       []string      `json:"thumbnails,omitempty"`
	Metadata         *probe.Result `json:"metadata,omitempty"`

	// OutputPath is the local encoder target, kept so deletion can remove
	// partial output from failed runs.
	OutputPath string `json:"-"`
}

// Clone returns a deep copy.
func (j *Job) Clone() *Job {
	c := *j
	if j.OutputReference != nil {
		ref := *j.OutputReference
		c.OutputReference = &ref
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.Detail != nil {
		d := *j.Detail
		c.Detail = &d
	}
	c.Warnings = append([]string(nil), j.Warnings...)
	c.Thumbnails = append([]string(nil), j.Thumbnails...)
	if j.Metadata != nil {
		m := *j.Metadata
		if j.Metadata.Video != nil {
			v := *j.Metadata.Video
			m.Video = &v
		}
		if j.Metadata.Audio != nil {
			a := *j.Metadata.Audio
			m.Audio = &a
		}
		c.Metadata = &m
	}
	return &c
}

func (j *Job) moveTo(to Status) error {
	if !CanTransition(j.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, to)
	}
	j.Status = to
	return nil
}

// Start moves a queued job to processing.
func (j *Job) Start(now time.Time) error {
	if j.Status != StatusQueued {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, StatusProcessing)
	}
	j.Status = StatusProcessing
	j.StartedAt = &now
	j.Progress = 0
	return nil
}

// SetProgress raises progress to p. Lower values are ignored, and values are
// capped below 100 until the job finishes.
func (j *Job) SetProgress(p int) error {
	if j.Status != StatusProcessing {
		return fmt.Errorf("%w: progress while %s", ErrInvalidTransition, j.Status)
	}
	if p > 99 {
		p = 99
	}
	if p > j.Progress {
		j.Progress = p
	}
	return nil
}

// StartUpload moves a processing job to uploading.
func (j *Job) StartUpload() error {
	if j.Status != StatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, StatusUploading)
	}
	return j.moveTo(StatusUploading)
}

// Finish marks the job done and records the artifact and sizes.
func (j *Job) Finish(ref string, inputSize, outputSize int64) error {
	if err := j.moveTo(StatusFinished); err != nil {
		return err
	}
	j.Progress = 100
	j.OutputReference = &ref
	j.Detail = nil
	j.InputSize = inputSize
	j.OutputSize = outputSize
	j.CompressionRatio = 0
	if inputSize > 0 {
		j.CompressionRatio = float64(outputSize) / float64(inputSize)
	}
	return nil
}

// Fail marks the job as errored with a human-readable cause.
func (j *Job) Fail(detail string) error {
	if err := j.moveTo(StatusError); err != nil {
		return err
	}
	j.Detail = &detail
	j.OutputReference = nil
	return nil
}

// AddWarning records a non-fatal note.
func (j *Job) AddWarning(msg string) {
	j.Warnings = append(j.Warnings, msg)
}

// checkInvariants verifies the record is self-consistent.
func (j *Job) checkInvariants() error {
	if j.Progress < 0 || j.Progress > 100 {
		return fmt.Errorf("progress %d out of range", j.Progress)
	}
	if (j.OutputReference != nil) != (j.Status == StatusFinished) {
		return fmt.Errorf("output reference must be set exactly when finished (status %s)", j.Status)
	}
	if j.Progress == 100 && j.Status != StatusFinished {
		return fmt.Errorf("progress 100 while %s", j.Status)
	}
	return nil
}
