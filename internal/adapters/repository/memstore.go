// Package repository provides storage adapters for job bookkeeping.
package repository

import (
	"fmt"
	"sync"

	"github.com/okian/prospector/internal/jobs"
)

// MemStore is an in-memory jobs.Repository guarded by a mutex. It is the
// default store; a durable key-value adapter can replace it without touching
// orchestration logic.
type MemStore struct {
	mu   sync.RWMutex
	jobs map[string]jobs.Job
}

// NewMemStore creates an empty in-memory job store.
func NewMemStore() *MemStore {
	return &MemStore{jobs: make(map[string]jobs.Job)}
}

// Insert stores a new job record. Duplicate ids are rejected: a collision
// would silently overwrite an in-flight job's bookkeeping.
func (s *MemStore) Insert(job jobs.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("%w: %s", jobs.ErrDuplicateID, job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

// Update replaces an existing job record. Records already in a terminal
// state are immutable.
func (s *MemStore) Update(job jobs.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.jobs[job.ID]
	if !exists {
		return fmt.Errorf("%w: %s", jobs.ErrNotFound, job.ID)
	}
	if current.Status.Terminal() {
		return fmt.Errorf("%w: job %s is already %s", jobs.ErrInvalidTransition, job.ID, current.Status)
	}
	s.jobs[job.ID] = job
	return nil
}

// Get returns a snapshot of the job with the given id.
func (s *MemStore) Get(id string) (jobs.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return jobs.Job{}, fmt.Errorf("%w: %s", jobs.ErrNotFound, id)
	}
	return job, nil
}

// List returns a snapshot of all job records in unspecified order.
func (s *MemStore) List() []jobs.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]jobs.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

// Len returns the number of tracked jobs.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
