package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store defines raw-byte blob storage keyed by file entry id. Each workspace
// entry exclusively owns its blob: it is written once on add and deleted on
// remove or clear.
type Store interface {
	Put(id string, data []byte) error
	Read(id string) ([]byte, error)
	Delete(id string) error
}

// LocalStore implements Store on the local filesystem, one file per entry id.
type LocalStore struct {
	mu  sync.RWMutex
	dir string
	ids map[string]struct{}
}

// NewLocalStore creates a LocalStore rooted at dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}

	return &LocalStore{
		dir: dir,
		ids: make(map[string]struct{}),
	}, nil
}

// Put writes the blob for id. A partial write leaves no file behind.
func (s *LocalStore) Put(id string, data []byte) error {
	path := filepath.Join(s.dir, id)
	if err := os.WriteFile(path, data, 0644); err != nil {
		os.Remove(path)
		return fmt.Errorf("writing blob: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}

	return nil
}

// Read returns the blob for id.
func (s *LocalStore) Read(id string) ([]byte, error) {
	s.mu.RLock()
	_, ok := s.ids[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("blob not found: %s", id)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, id))
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", id, err)
	}
	return data, nil
}

// Delete removes the blob for id. Deleting an unknown id is a no-op.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(filepath.Join(s.dir, id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting blob: %w", err)
	}
	delete(s.ids, id)

	return nil
}
