package jobs

import (
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when no job exists for an id.
var ErrNotFound = errors.New("job not found")

// ErrExists is returned when putting a job under an id that is already taken.
var ErrExists = errors.New("job id already exists")

// Store is the canonical mapping of job id to Job. Updates must be visible to
// subsequent Gets immediately; polling is the only feedback mechanism.
type Store interface {
	// Put inserts a new record. It fails with ErrExists on a duplicate id.
	Put(id string, job Job) error

	// Get returns a snapshot of the current job, or ErrNotFound.
	Get(id string) (Job, error)

	// Update applies mutate to the stored job under the store's lock.
	// Returns ErrNotFound if the id is unknown.
	Update(id string, mutate func(*Job)) error

	// Delete removes a record. Removing an unknown id is a no-op.
	Delete(id string)

	// EvictTerminal removes terminal jobs whose DoneAt is before cutoff and
	// reports how many were removed. Non-terminal jobs are never touched.
	EvictTerminal(cutoff time.Time) int

	// Len returns the number of live jobs.
	Len() int
}

// MemoryStore is the in-memory Store. State is volatile and lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*Job),
	}
}

// Put inserts a new record, rejecting duplicate ids.
func (s *MemoryStore) Put(id string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; ok {
		return ErrExists
	}
	job.ID = id
	s.jobs[id] = &job
	return nil
}

// Get returns a copy of the job so callers cannot mutate stored state.
func (s *MemoryStore) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *j, nil
}

// Update applies mutate under the write lock, so the change is observed by
// any Get that starts after Update returns.
func (s *MemoryStore) Update(id string, mutate func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	mutate(j)
	return nil
}

// Delete removes a record.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// EvictTerminal removes completed and failed jobs older than cutoff.
func (s *MemoryStore) EvictTerminal(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, j := range s.jobs {
		if j.Status.IsTerminal() && j.DoneAt.Before(cutoff) {
			delete(s.jobs, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of live jobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
