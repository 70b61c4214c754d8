package credstore

import (
	"sync"
)

// MemoryStore is an in-memory Store. Its zero value is not usable; call
// NewMemoryStore.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string

	failSet map[string]error
	writes  []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:  make(map[string]string),
		failSet: make(map[string]error),
	}
}

// Get returns the value for key.
func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key, unless a failure was injected for key.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failSet[key]; err != nil {
		return err
	}
	s.values[key] = value
	s.writes = append(s.writes, key)
	return nil
}

// FailSet makes every later Set of key return err. A nil err clears the fault.
func (s *MemoryStore) FailSet(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failSet, key)
		return
	}
	s.failSet[key] = err
}

// Writes returns the keys of all successful Set calls, in order.
func (s *MemoryStore) Writes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.writes))
	copy(out, s.writes)
	return out
}

// Compile-time interface satisfaction check.
var _ Store = (*MemoryStore)(nil)
