package handlers

import (
	"context"
	"time"

	"media-transcoder/internal/probe"
	"media-transcoder/internal/storage"
	"media-transcoder/internal/transcoder"
)

// ReadyFunc reports whether a dependency is usable.
type ReadyFunc func(ctx context.Context) error

// Deps are the collaborators of the handlers.
type Deps struct {
	Transcoder *transcoder.Transcoder
	Storage    storage.Store
	// Outputs serves local artifacts for download.
	Outputs *storage.Local
	Prober  *probe.Prober
	// Ready, when set, gates the readiness probe.
	Ready ReadyFunc
	// Backend names the job persistence backend in health output.
	Backend string
}

type Handlers struct {
	transcoder *transcoder.Transcoder
	storage    storage.Store
	outputs    *storage.Local
	prober     *probe.Prober
	ready      ReadyFunc
	backend    string
	startTime  time.Time
}

func New(deps Deps) *Handlers {
	return &Handlers{
		transcoder: deps.Transcoder,
		storage:    deps.Storage,
		outputs:    deps.Outputs,
		prober:     deps.Prober,
		ready:      deps.Ready,
		backend:    deps.Backend,
		startTime:  time.Now(),
	}
}
