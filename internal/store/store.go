package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// ErrNotFound is returned by Get when a key is absent.
var ErrNotFound = errors.New("key not found")

// Store is a JSON-file backed key-value map. The whole map is loaded on Open
// and rewritten on Save, matching the one-run-one-file usage of the batch
// commands. Save never leaves a torn file behind: it writes a sibling temp
// file and renames it over the target while holding a cross-process lock.
type Store[V any] struct {
	mu     sync.RWMutex
	path   string
	lock   *flock.Flock
	data   map[string]V
	dirty  bool
	logger *slog.Logger
}

// Open loads the store at path, creating its directory if needed. A missing
// file yields an empty store. A file that cannot be decoded is moved aside to
// <path>.corrupt-<unix> and the store starts empty.
func Open[V any](path string) (*Store[V], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("could not create state directory: %w", err)
	}

	s := &Store[V]{
		path:   path,
		lock:   flock.New(path + ".lock"),
		data:   make(map[string]V),
		logger: slog.Default().With(slog.String("component", "store"), slog.String("file", filepath.Base(path))),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store[V]) Path() string {
	return s.path
}

// Get returns the value stored under key or ErrNotFound.
func (s *Store[V]) Get(key string) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		var zero V
		return zero, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return v, nil
}

// Has reports whether key is present.
func (s *Store[V]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Put stores v under key. The change is persisted on the next Save.
func (s *Store[V]) Put(key string, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = v
	s.dirty = true
}

// Delete removes key.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.dirty = true
	}
}

// Replace swaps the entire contents of the store.
func (s *Store[V]) Replace(data map[string]V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]V, len(data))
	for k, v := range data {
		s.data[k] = v
	}
	s.dirty = true
}

// Keys returns all keys in sorted order.
func (s *Store[V]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Snapshot returns a copy of the stored map.
func (s *Store[V]) Snapshot() map[string]V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]V, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Prune removes every entry for which drop returns true and reports how many
// entries were removed.
func (s *Store[V]) Prune(drop func(key string, v V) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, v := range s.data {
		if drop(k, v) {
			delete(s.data, k)
			n++
		}
	}
	if n > 0 {
		s.dirty = true
	}
	return n
}

// Save writes the store to disk if it changed since the last load or save.
func (s *Store[V]) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("could not lock state file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("could not create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("could not replace state file: %w", err)
	}

	s.dirty = false
	return nil
}

func (s *Store[V]) load() error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("could not lock state file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not read state file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
		if renameErr := os.Rename(s.path, aside); renameErr != nil {
			return fmt.Errorf("state file is corrupt and could not be moved aside: %w", errors.Join(err, renameErr))
		}
		s.logger.Warn("state file was corrupt, starting empty",
			slog.String("moved_to", aside),
			slog.String("error", err.Error()))
		s.data = make(map[string]V)
		return nil
	}
	if s.data == nil {
		s.data = make(map[string]V)
	}
	return nil
}
