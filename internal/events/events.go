// Package events publishes job status transitions for downstream consumers.
package events

import (
	"context"
	"time"
)

// Event describes one status transition of a job.
type Event struct {
	JobID           string    `json:"jobId"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	Progress        int       `json:"progress"`
	OutputReference string    `json:"outputReference,omitempty"`
	Detail          string    `json:"detail,omitempty"`
	Time            time.Time `json:"time"`
}

// Publisher sends events somewhere.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }
