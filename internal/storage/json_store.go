package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// JSONStore persists a single value as an indented JSON file. Saves marshal
// in memory first and land via a temp file and rename, so the snapshot on
// disk is always either the previous value or the new one.
type JSONStore struct {
	mu   sync.RWMutex
	path string
}

func NewJSONStore(dataDir, filename string) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dataDir, err)
	}
	return &JSONStore{path: filepath.Join(dataDir, filename)}, nil
}

// Load decodes the snapshot into data. A missing or empty file is not an
// error; data is left untouched.
func (s *JSONStore) Load(data interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	return nil
}

// Save replaces the snapshot with data.
func (s *JSONStore) Save(data interface{}) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", s.path, err)
	}
	raw = append(raw, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("swap snapshot %s: %w", s.path, err)
	}
	return nil
}

// Exists reports whether a snapshot has been written yet.
func (s *JSONStore) Exists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.path)
	return err == nil
}
