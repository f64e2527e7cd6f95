package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// SelectionStore persists the requested frame limit per device path.
// A zero path keeps selections in memory only.
type SelectionStore struct {
	path string

	mu         sync.Mutex
	selections map[string]int
}

type selectionFile struct {
	Selections map[string]int `yaml:"selections"`
}

// NewSelectionStore loads selections from path. A missing file is an empty
// store.
func NewSelectionStore(path string) (*SelectionStore, error) {
	s := &SelectionStore{
		path:       path,
		selections: make(map[string]int),
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read selections: %w", err)
	}

	var file selectionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s: failed to parse selections: %w", path, err)
	}
	for k, v := range file.Selections {
		s.selections[k] = v
	}
	return s, nil
}

// Path returns the backing file, empty for in-memory stores.
func (s *SelectionStore) Path() string {
	return s.path
}

// Get returns the stored limit for devicePath.
func (s *SelectionStore) Get(devicePath string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.selections[devicePath]
	return v, ok
}

// Set records limit for devicePath and writes the store to disk.
func (s *SelectionStore) Set(devicePath string, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[devicePath] = limit
	return s.saveLocked()
}

// Delete forgets devicePath.
func (s *SelectionStore) Delete(devicePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selections[devicePath]; !ok {
		return nil
	}
	delete(s.selections, devicePath)
	return s.saveLocked()
}

func (s *SelectionStore) saveLocked() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := yaml.Marshal(selectionFile{Selections: s.selections})
	if err != nil {
		return fmt.Errorf("failed to marshal selections: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write selections %q: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize selections %q: %w", s.path, err)
	}
	return nil
}
