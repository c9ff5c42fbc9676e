package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-transcoder/internal/logging"
	"media-transcoder/internal/metrics"
)

// Persister durably stores job records.
type Persister interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	SaveJob(ctx context.Context, job *Job) error
	DeleteJob(ctx context.Context, id string) error
	LoadJobs(ctx context.Context) ([]*Job, error)
}

// RestartDetail is recorded on jobs that were active when the process died.
const RestartDetail = "interrupted by restart"

const persistTimeout = 5 * time.Second

type entry struct {
	mu      sync.Mutex
	job     *Job
	deleted bool
}

// Store is the arena of job records keyed by id.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	persister Persister
	now       func() time.Time
}

// NewStore returns an empty store. A nil persister keeps records in memory
// only.
func NewStore(p Persister) *Store {
	return &Store{
		entries:   make(map[string]*entry),
		persister: p,
		now:       time.Now,
	}
}

// Create registers a new queued job and persists it.
func (s *Store) Create(ctx context.Context, input string, typ Type) (*Job, error) {
	now := s.now()
	job := &Job{
		ID:        uuid.NewString(),
		Input:     input,
		Type:      typ,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	e := &entry{job: job}
	e.mu.Lock()
	defer e.mu.Unlock()

	s.mu.Lock()
	s.entries[job.ID] = e
	s.mu.Unlock()

	s.save(ctx, job)
	return job.Clone(), nil
}

func (s *Store) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// Get returns a copy of the job.
func (s *Store) Get(id string) (*Job, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, ErrNotFound
	}
	return e.job.Clone(), nil
}

// List returns copies of all jobs, newest first. The listing is not
// transactionally consistent with in-flight updates.
func (s *Store) List() []*Job {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]*Job, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			out = append(out, e.job.Clone())
		}
		e.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Update applies fn to a copy of the job under the job's lock. If fn
// succeeds and the result is consistent, the copy replaces the record and is
// persisted before the lock is released.
func (s *Store) Update(ctx context.Context, id string, fn func(*Job) error) (*Job, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, ErrNotFound
	}

	next := e.job.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if next.ID != e.job.ID {
		return nil, fmt.Errorf("job id is immutable")
	}
	if e.job.Status.IsActive() && next.Status == e.job.Status && next.Progress < e.job.Progress {
		return nil, fmt.Errorf("progress must not decrease (%d -> %d)", e.job.Progress, next.Progress)
	}
	if err := next.checkInvariants(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	next.UpdatedAt = s.now()
	e.job = next
	s.save(ctx, next)
	return next.Clone(), nil
}

// Delete removes the job and returns its final state so callers can clean
// up artifacts.
func (s *Store) Delete(ctx context.Context, id string) (*Job, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, ErrNotFound
	}
	e.deleted = true

	if s.persister != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		if err := s.persister.DeleteJob(pctx, id); err != nil {
			metrics.JobPersistErrors.WithLabelValues(s.persister.Name(), "delete").Inc()
			logging.Error("Failed to delete job %s from %s: %v", id, s.persister.Name(), err)
		}
	}
	return e.job.Clone(), nil
}

// CountByStatus returns the number of jobs per status.
func (s *Store) CountByStatus() map[string]int {
	counts := make(map[string]int, len(Statuses))
	for _, st := range Statuses {
		counts[string(st)] = 0
	}
	for _, j := range s.List() {
		counts[string(j.Status)]++
	}
	return counts
}

// Load populates the store from the persister. Jobs that were queued or
// active when the previous process stopped have no owner any more and are
// moved to error. It returns the number of jobs loaded.
func (s *Store) Load(ctx context.Context) (int, error) {
	if s.persister == nil {
		return 0, nil
	}

	loaded, err := s.persister.LoadJobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load jobs from %s: %w", s.persister.Name(), err)
	}

	recovered := 0
	for _, job := range loaded {
		if !job.Status.IsTerminal() {
			if err := job.Fail(RestartDetail); err != nil {
				logging.Warn("Cannot recover job %s in status %s: %v", job.ID, job.Status, err)
				continue
			}
			job.UpdatedAt = s.now()
			s.save(ctx, job)
			recovered++
		}

		s.mu.Lock()
		s.entries[job.ID] = &entry{job: job}
		s.mu.Unlock()
	}

	if recovered > 0 {
		logging.Warn("Marked %d interrupted job(s) as failed", recovered)
	}
	return len(loaded), nil
}

// save writes job through to the persister. Failures are logged only.
func (s *Store) save(ctx context.Context, job *Job) {
	if s.persister == nil {
		return
	}

	// Persist even when ctx is already cancelled.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.persister.SaveJob(pctx, job); err != nil {
		metrics.JobPersistErrors.WithLabelValues(s.persister.Name(), "save").Inc()
		logging.Error("Failed to persist job %s to %s: %v", job.ID, s.persister.Name(), err)
	}
}
