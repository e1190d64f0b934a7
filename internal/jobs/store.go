package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or already-purged job ids.
// Callers treat it as "job expired or invalid", never as a crash.
var ErrNotFound = errors.New("job not found")

// Store is the in-memory job registry. All methods are safe for
// concurrent use; mutation happens only under the write lock, and
// reads return copies so callers never alias live records.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a new queued job and returns its snapshot.
func (s *Store) Create(mode Mode, filename, inputPath string) Job {
	job := &Job{
		ID:        uuid.NewString(),
		State:     StateQueued,
		Mode:      mode,
		Filename:  filename,
		InputPath: inputPath,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	return *job
}

// Get returns a snapshot of the job, or ErrNotFound.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *job, nil
}

// Update applies fn to the job as an atomic read-modify-write and
// returns the resulting snapshot.
func (s *Store) Update(id string, fn func(*Job)) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	fn(job)
	return *job, nil
}

// Claim atomically transitions a queued job to running. The boolean
// reports whether this caller won the claim; a duplicate dispatch for
// an already-claimed job gets false and must not run the encode.
func (s *Store) Claim(id string) (Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false, ErrNotFound
	}
	if job.State != StateQueued {
		return *job, false, nil
	}
	job.State = StateRunning
	return *job, true, nil
}

// Delete removes the job record. Deleting an unknown id returns
// ErrNotFound so download handlers can distinguish a repeat attempt.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

// List returns snapshots of all jobs in no particular order.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	return out
}

// Counts returns the number of jobs per state, for health reporting.
func (s *Store) Counts() map[State]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[State]int, 4)
	for _, job := range s.jobs {
		counts[job.State]++
	}
	return counts
}
