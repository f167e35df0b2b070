package tracker

import "sync"

// MemoryStore keeps outcome history in memory only (no persistence).
type MemoryStore struct {
	outcomes []Outcome
	maxCount int
	mu       sync.Mutex
}

// NewMemoryStore creates a new in-memory store holding at most maxCount outcomes.
// A maxCount of 0 keeps everything.
func NewMemoryStore(maxCount int) *MemoryStore {
	return &MemoryStore{
		outcomes: make([]Outcome, 0),
		maxCount: maxCount,
	}
}

// History returns all outcomes, most recent first.
func (s *MemoryStore) History() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Outcome, len(s.outcomes))
	copy(result, s.outcomes)
	return result
}

// Save stores an outcome in memory.
func (s *MemoryStore) Save(o Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Prepend to keep most recent first
	s.outcomes = append([]Outcome{o}, s.outcomes...)
	if s.maxCount > 0 && len(s.outcomes) > s.maxCount {
		s.outcomes = s.outcomes[:s.maxCount]
	}
	return nil
}
