package transcoder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"media-transcoder/internal/command"
	"media-transcoder/internal/encoding"
	"media-transcoder/internal/events"
	"media-transcoder/internal/filesystem"
	"media-transcoder/internal/jobs"
	"media-transcoder/internal/logging"
	"media-transcoder/internal/metrics"
	"media-transcoder/internal/probe"
	"media-transcoder/internal/process"
	"media-transcoder/internal/storage"
	"media-transcoder/internal/thumbnail"
)

var (
	// ErrShuttingDown is returned for work submitted after Shutdown.
	ErrShuttingDown = errors.New("transcoder is shutting down")
	// ErrNotRunning is returned when cancelling a job that already ended.
	ErrNotRunning = errors.New("job is not running")
)

// CancelledDetail is recorded on jobs stopped by Cancel or Shutdown.
const CancelledDetail = "cancelled"

const publishTimeout = 5 * time.Second

// Config holds engine settings.
type Config struct {
	FFmpegPath string
	// OutputDir is where the encoder writes. Outputs stay there with a
	// local store and are staged there with a remote one.
	OutputDir      string
	FontPaths      []string
	CaptureWorkers int
}

// Deps are the collaborators of the engine. Nil Events disables
// publishing; nil Spawner runs real processes.
type Deps struct {
	Store   *jobs.Store
	Storage storage.Store
	Spawner process.Spawner
	Prober  *probe.Prober
	Events  events.Publisher
}

type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Transcoder owns the job supervisors.
type Transcoder struct {
	cfg     Config
	store   *jobs.Store
	storage storage.Store
	spawner process.Spawner
	prober  *probe.Prober
	builder *command.Builder
	thumbs  *thumbnail.Generator
	events  events.Publisher

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu      sync.Mutex
	running map[string]*run
	closed  bool
	wg      sync.WaitGroup
}

// New creates a Transcoder.
func New(cfg Config, deps Deps) *Transcoder {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	spawner := deps.Spawner
	if spawner == nil {
		spawner = process.Exec{}
	}
	prober := deps.Prober
	if prober == nil {
		prober = probe.New("", spawner)
	}
	pub := deps.Events
	if pub == nil {
		pub = events.Noop{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Transcoder{
		cfg:        cfg,
		store:      deps.Store,
		storage:    deps.Storage,
		spawner:    spawner,
		prober:     prober,
		builder:    command.NewBuilder(cfg.FontPaths),
		thumbs:     thumbnail.NewGenerator(cfg.FFmpegPath, spawner, prober, cfg.CaptureWorkers),
		events:     pub,
		baseCtx:    ctx,
		baseCancel: cancel,
		running:    make(map[string]*run),
	}
}

// Recover loads persisted jobs, failing any that were active when the
// previous process stopped.
func (t *Transcoder) Recover(ctx context.Context) (int, error) {
	n, err := t.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	logging.Info("Loaded %d job(s)", n)
	return n, nil
}

// CreateJob registers a queued job. preset echoes the requested preset name
// and may be empty.
func (t *Transcoder) CreateJob(ctx context.Context, input string, typ jobs.Type, preset string) (*jobs.Job, error) {
	if t.isClosed() {
		return nil, ErrShuttingDown
	}

	job, err := t.store.Create(ctx, input, typ)
	if err != nil {
		return nil, err
	}
	if preset != "" {
		job, err = t.store.Update(ctx, job.ID, func(j *jobs.Job) error {
			j.Preset = preset
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	metrics.JobsCreatedTotal.WithLabelValues(string(typ)).Inc()
	logging.Job(job.ID).Info("Created %s job for %s", typ, filepath.Base(input))
	t.publish(job)
	return job, nil
}

// GetJob returns a snapshot of the job.
func (t *Transcoder) GetJob(id string) (*jobs.Job, error) {
	return t.store.Get(id)
}

// ListJobs returns snapshots of all jobs, newest first.
func (t *Transcoder) ListJobs() []*jobs.Job {
	return t.store.List()
}

// RunTranscode validates cfg and starts encoding input for the queued job
// id in the background. Configuration errors are returned before any
// process is started, and the job is failed with the same message.
func (t *Transcoder) RunTranscode(id, input string, cfg encoding.Config) error {
	job, err := t.store.Get(id)
	if err != nil {
		return err
	}
	if job.Status != jobs.StatusQueued {
		return fmt.Errorf("%w: job is %s", jobs.ErrInvalidTransition, job.Status)
	}

	cfg, release, err := t.resolveWatermark(cfg)
	if err == nil {
		err = command.Validate(cfg)
	}
	if err != nil {
		release()
		t.fail(context.Background(), id, err.Error())
		return err
	}

	err = t.launch(id, func(ctx context.Context) {
		defer release()
		t.superviseTranscode(ctx, id, input, cfg)
	})
	if err != nil {
		release()
	}
	return err
}

// resolveWatermark makes a watermark image reference available locally.
// The returned release func frees it and is never nil.
func (t *Transcoder) resolveWatermark(cfg encoding.Config) (encoding.Config, func(), error) {
	noop := func() {}
	if cfg.Watermark == nil || cfg.Watermark.Image == "" || strings.TrimSpace(cfg.Watermark.Text) != "" {
		return cfg, noop, nil
	}

	ref := cfg.Watermark.Image
	path, err := t.storage.FetchToLocal(context.Background(), ref)
	if err != nil {
		logging.Debug("Watermark %s unavailable: %v", filepath.Base(ref), err)
		return cfg, noop, fmt.Errorf("%w: %s", command.ErrWatermarkNotFound, filepath.Base(ref))
	}

	wm := *cfg.Watermark
	wm.Image = path
	cfg.Watermark = &wm
	return cfg, func() {
		if err := t.storage.Release(path); err != nil {
			logging.Warn("Failed to release watermark %s: %v", filepath.Base(path), err)
		}
	}, nil
}

// RunThumbnails validates spec and starts capturing thumbnails of input for
// the queued job id in the background.
func (t *Transcoder) RunThumbnails(id, input string, spec encoding.ThumbnailSpec) error {
	job, err := t.store.Get(id)
	if err != nil {
		return err
	}
	if job.Status != jobs.StatusQueued {
		return fmt.Errorf("%w: job is %s", jobs.ErrInvalidTransition, job.Status)
	}

	if err := command.ValidateThumbnails(&spec); err != nil {
		t.fail(context.Background(), id, err.Error())
		return err
	}

	return t.launch(id, func(ctx context.Context) {
		t.superviseThumbnails(ctx, id, input, spec)
	})
}

// launch runs fn in a goroutine registered as the owner of job id.
func (t *Transcoder) launch(id string, fn func(ctx context.Context)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrShuttingDown
	}
	if _, ok := t.running[id]; ok {
		return fmt.Errorf("%w: job already running", jobs.ErrInvalidTransition)
	}

	ctx, cancel := context.WithCancel(t.baseCtx)
	r := &run{cancel: cancel, done: make(chan struct{})}
	t.running[id] = r
	metrics.JobsActive.Inc()
	t.wg.Add(1)

	go func() {
		defer t.wg.Done()
		defer close(r.done)
		defer cancel()
		defer func() {
			t.mu.Lock()
			delete(t.running, id)
			t.mu.Unlock()
			metrics.JobsActive.Dec()
		}()
		fn(ctx)
	}()
	return nil
}

// Cancel stops a running job, which ends in error with detail "cancelled".
// A queued job that was never started is failed directly.
func (t *Transcoder) Cancel(id string) error {
	t.mu.Lock()
	r, ok := t.running[id]
	t.mu.Unlock()

	if ok {
		logging.Job(id).Info("Cancelling")
		r.cancel()
		return nil
	}

	job, err := t.store.Get(id)
	if err != nil {
		return err
	}
	if job.Status != jobs.StatusQueued {
		return ErrNotRunning
	}
	t.fail(context.Background(), id, CancelledDetail)
	return nil
}

// DeleteJob cancels the job if it is running, waits for its supervisor to
// exit, then removes the record and every artifact it produced, including
// partial output.
func (t *Transcoder) DeleteJob(ctx context.Context, id string) error {
	t.mu.Lock()
	r, ok := t.running[id]
	t.mu.Unlock()

	if ok {
		r.cancel()
		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	job, err := t.store.Delete(ctx, id)
	if err != nil {
		return err
	}

	log := logging.Job(id)
	if job.OutputReference != nil {
		if err := t.storage.Delete(ctx, *job.OutputReference); err != nil {
			log.Warn("Failed to delete output: %v", err)
		}
	}
	for _, ref := range job.Thumbnails {
		if err := t.storage.Delete(ctx, ref); err != nil {
			log.Warn("Failed to delete thumbnail: %v", err)
		}
	}
	if job.OutputPath != "" {
		if err := filesystem.RemoveWithRetry(job.OutputPath, filesystem.DefaultRetryConfig()); err != nil {
			log.Warn("Failed to remove local output: %v", err)
		}
	}
	if err := filesystem.RemoveWithRetry(t.artifactDir(id), filesystem.DefaultRetryConfig()); err != nil {
		log.Warn("Failed to remove artifact directory: %v", err)
	}

	log.Info("Deleted")
	return nil
}

// Running returns the number of jobs with a live supervisor.
func (t *Transcoder) Running() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.running)
}

// Shutdown cancels every running job and waits for the supervisors to
// record their final state, or for ctx to expire.
func (t *Transcoder) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	n := len(t.running)
	t.mu.Unlock()

	if n > 0 {
		logging.Info("Stopping %d running job(s)", n)
	}
	t.baseCancel()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for jobs to stop: %w", ctx.Err())
	}
}

func (t *Transcoder) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// artifactDir holds the thumbnails of job id.
func (t *Transcoder) artifactDir(id string) string {
	return filepath.Join(t.cfg.OutputDir, id)
}

// update applies fn to the job and reports status transitions.
func (t *Transcoder) update(ctx context.Context, id string, fn func(*jobs.Job) error) (*jobs.Job, error) {
	var from jobs.Status
	job, err := t.store.Update(ctx, id, func(j *jobs.Job) error {
		from = j.Status
		return fn(j)
	})
	if err != nil {
		return nil, err
	}
	if job.Status != from {
		t.onTransition(job)
	}
	return job, nil
}

// fail moves the job to error. A job that was deleted meanwhile is ignored.
func (t *Transcoder) fail(ctx context.Context, id, detail string) {
	_, err := t.update(ctx, id, func(j *jobs.Job) error {
		return j.Fail(detail)
	})
	if err != nil && !errors.Is(err, jobs.ErrNotFound) {
		logging.Job(id).Error("Failed to record failure: %v", err)
	}
}

func (t *Transcoder) onTransition(job *jobs.Job) {
	log := logging.Job(job.ID)
	switch job.Status {
	case jobs.StatusFinished:
		log.Info("Finished (%d bytes)", job.OutputSize)
	case jobs.StatusError:
		detail := ""
		if job.Detail != nil {
			detail = *job.Detail
		}
		log.Warn("Failed: %s", firstLine(detail))
	default:
		log.Debug("Status %s", job.Status)
	}

	if job.Status.IsTerminal() {
		metrics.JobsCompletedTotal.WithLabelValues(string(job.Type), string(job.Status)).Inc()
	}
	t.publish(job)
}

func (t *Transcoder) publish(job *jobs.Job) {
	ev := events.Event{
		JobID:    job.ID,
		Type:     string(job.Type),
		Status:   string(job.Status),
		Progress: job.Progress,
		Time:     job.UpdatedAt,
	}
	if job.OutputReference != nil {
		ev.OutputReference = *job.OutputReference
	}
	if job.Detail != nil {
		ev.Detail = *job.Detail
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := t.events.Publish(ctx, ev); err != nil {
		logging.Job(job.ID).Warn("Failed to publish %s event: %v", job.Status, err)
	}
}
