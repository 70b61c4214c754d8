package credstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// fileVersion is the current version of the store file format.
const fileVersion = 1

type fileContents struct {
	Version int               `json:"version"`
	SavedAt time.Time         `json:"saved_at"`
	Values  map[string]string `json:"values"`
}

// FileStore keeps all keys in a single JSON file. Every Set rewrites the
// file through a temporary file and a rename.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewFileStore opens the store at path, loading existing values. A missing
// file is an empty store.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	var contents fileContents
	if err := json.Unmarshal(data, &contents); err != nil {
		return nil, err
	}
	for k, v := range contents.Values {
		s.values[k] = v
	}
	return s, nil
}

// Path returns the file the store writes to.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the value for key.
func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key and flushes the file. On a write failure the
// in-memory value is rolled back.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	s.values[key] = value
	if err := s.flush(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(fileContents{
		Version: fileVersion,
		SavedAt: time.Now(),
		Values:  s.values,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Compile-time interface satisfaction check.
var _ Store = (*FileStore)(nil)
