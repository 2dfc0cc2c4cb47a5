package secretstore

import "sync"

// MemStore is an in-memory Store used by tests and by builds without any
// persistence at all.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]entry
	// Unusable forces Ok() to report false, simulating a platform without a
	// secret store.
	Unusable bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]entry)}
}

// Ok reports whether the store accepts entries.
func (s *MemStore) Ok() bool {
	return s != nil && !s.Unusable
}

// Save stores secret under key.
func (s *MemStore) Save(key, user, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[string]entry)
	}
	s.entries[key] = entry{User: user, Secret: secret}
	return nil
}

// Load retrieves the entry stored under key.
func (s *MemStore) Load(key string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", "", ErrNotFound
	}
	return e.User, e.Secret, nil
}
