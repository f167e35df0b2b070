package session

import "sync"

// MemoryStore keeps the session in memory only.
type MemoryStore struct {
	mu  sync.RWMutex
	doc document
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Token
}

func (s *MemoryStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Token = token
	return nil
}

func (s *MemoryStore) Profile() (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.profile()
}

func (s *MemoryStore) SetProfile(p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Profile = &p
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = document{}
	return nil
}
