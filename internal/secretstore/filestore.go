package secretstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// entry is the on-disk shape of one stored credential.
type entry struct {
	User   string `json:"user"`
	Secret string `json:"secret"`
}

// FileStore persists credentials in a single JSON file with restrictive
// permissions. It stands in for an OS keychain on platforms or builds where
// none is wired up.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by file at path. The parent directory
// is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Ok reports whether the store file location is usable.
func (s *FileStore) Ok() bool {
	if s == nil || s.path == "" {
		return false
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return false
	}
	return true
}

// Save persists secret under key, replacing any previous entry.
func (s *FileStore) Save(key, user, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	entries[key] = entry{User: user, Secret: secret}

	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("secretstore: create dir failed: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("secretstore: marshal failed: %w", err)
	}
	if err = os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("secretstore: write %s failed: %w", s.path, err)
	}
	return nil
}

// Load retrieves the entry stored under key.
func (s *FileStore) Load(key string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return "", "", err
	}
	e, ok := entries[key]
	if !ok {
		return "", "", ErrNotFound
	}
	return e.User, e.Secret, nil
}

func (s *FileStore) read() (map[string]entry, error) {
	entries := make(map[string]entry)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, fmt.Errorf("secretstore: read %s failed: %w", s.path, err)
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err = json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("secretstore: parse %s failed: %w", s.path, err)
	}
	return entries, nil
}
