package store

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is a simple in-memory JobStore implementation.
// It is used by tests and local development. Do not use in production:
// ids and queues do not survive a restart and cannot be shared across
// processes.
type MemoryStore struct {
	mu       sync.Mutex
	counter  int64
	fields   map[string]string
	generate []string
	results  []string
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		fields: make(map[string]string),
	}
}

func (s *MemoryStore) NextJobID(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return s.counter, nil
}

func (s *MemoryStore) SetField(_ context.Context, jobID int64, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[JobKey(strconv.FormatInt(jobID, 10), field)] = value
	return nil
}

func (s *MemoryStore) GetField(_ context.Context, jobID, field string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.fields[JobKey(jobID, field)]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (s *MemoryStore) PushGenerate(_ context.Context, jobID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// LPUSH semantics: newest at the head, worker pops from the tail.
	s.generate = append([]string{strconv.FormatInt(jobID, 10)}, s.generate...)
	return nil
}

func (s *MemoryStore) PopResult(ctx context.Context, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		if n := len(s.results); n > 0 {
			id := s.results[n-1]
			s.results = s.results[:n-1]
			s.mu.Unlock()
			return id, nil
		}
		s.mu.Unlock()

		if time.Now().After(deadline) {
			return "", ErrNotFound
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (s *MemoryStore) Close() error {
	return nil
}

// PushResult plays the external worker's role: it marks a job as completed
// by pushing its id onto the results queue.
func (s *MemoryStore) PushResult(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append([]string{jobID}, s.results...)
}

// Generate returns a snapshot of the generate queue, head first.
func (s *MemoryStore) Generate() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.generate))
	copy(out, s.generate)
	return out
}

// Counter returns the current value of the job id counter.
func (s *MemoryStore) Counter() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}
