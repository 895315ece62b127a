package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
)

// Storage is the client-side key/value persistence the store writes
// through. It mirrors the web storage contract: string keys, string
// values, absence reported rather than an error.
type Storage interface {
	GetItem(key string) (string, bool)
	SetItem(key, value string) error
}

// FileStorage persists items as a JSON object in a single file. It is
// the durable "local storage" of the basket across restarts.
type FileStorage struct {
	mu    sync.Mutex
	path  string
	items map[string]string
}

func NewFileStorage(path string) (*FileStorage, error) {
	s := &FileStorage{path: path, items: map[string]string{}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.items); err != nil {
		// Unreadable state starts over empty, same as a cleared browser.
		s.items = map[string]string{}
	}
	return s, nil
}

func (s *FileStorage) GetItem(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok
}

func (s *FileStorage) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value

	raw, err := json.Marshal(s.items)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o644)
}

// MemoryStorage is the session-scoped (and test) counterpart: nothing
// survives the process.
type MemoryStorage struct {
	mu    sync.Mutex
	items map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: map[string]string{}}
}

func (s *MemoryStorage) GetItem(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok
}

func (s *MemoryStorage) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}
