package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrHistoryUnavailable wraps every failure to read or write history.
// It is never fatal to a classification.
var ErrHistoryUnavailable = errors.New("rule history unavailable")

// Store persists History between runs.
type Store interface {
	// Load returns the persisted history. A store that has never been
	// written returns an empty history and initialises its backing resource.
	Load(ctx context.Context) (History, error)

	// Save replaces the persisted history.
	Save(ctx context.Context, h History) error

	// Location describes where the history lives, for messages.
	Location() string

	Close() error
}

// FileStore keeps history in a JSON document.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the JSON file at path. The file is
// created on first Load.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Location implements Store.
func (s *FileStore) Location() string { return s.path }

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// Load implements Store.
func (s *FileStore) Load(ctx context.Context) (History, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Empty(), fmt.Errorf("%w: reading %s: %v", ErrHistoryUnavailable, s.path, err)
		}
		// First run: write an empty document so later saves have a home.
		h := Empty()
		if err := s.Save(ctx, h); err != nil {
			return h, err
		}
		return h, nil
	}

	h := Empty()
	if err := json.Unmarshal(data, &h); err != nil {
		return Empty(), fmt.Errorf("%w: parsing %s: %v", ErrHistoryUnavailable, s.path, err)
	}
	if h.Frameworks == nil {
		h.Frameworks = []string{}
	}
	if h.Vanilla == nil {
		h.Vanilla = []string{}
	}
	return h, nil
}

// Save implements Store. The document is written to a temporary file and
// renamed over the previous one.
func (s *FileStore) Save(_ context.Context, h History) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("%w: creating history directory: %v", ErrHistoryUnavailable, err)
	}

	data, err := json.MarshalIndent(h, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: serializing history: %v", ErrHistoryUnavailable, err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrHistoryUnavailable, tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath) // best effort
		return fmt.Errorf("%w: committing %s: %v", ErrHistoryUnavailable, s.path, err)
	}
	return nil
}

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu sync.Mutex
	h  History
}

// NewMemoryStore returns a store seeded with h.
func NewMemoryStore(h History) *MemoryStore {
	return &MemoryStore{h: h.Clone()}
}

func (s *MemoryStore) Location() string { return "memory" }
func (s *MemoryStore) Close() error     { return nil }

func (s *MemoryStore) Load(context.Context) (History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, h History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.h = h.Clone()
	return nil
}
