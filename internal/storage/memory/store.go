// Package memory provides an in-memory KVStore.
//
// It backs tests and the server's --ephemeral mode. Failures can be
// injected per key to exercise error paths in callers.
package memory

import (
	"context"
	"sort"
	"sync"
)

// Store is a map-backed KVStore. The zero value is not usable; call New.
type Store struct {
	mu      sync.RWMutex
	data    map[string]string
	failGet map[string]error
	failSet map[string]error
	writes  int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		data:    make(map[string]string),
		failGet: make(map[string]error),
		failSet: make(map[string]error),
	}
}

// NewWithData creates a store seeded with a copy of data.
func NewWithData(data map[string]string) *Store {
	s := New()
	for k, v := range data {
		s.data[k] = v
	}
	return s
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failGet[key]; err != nil {
		return "", false, err
	}
	v, ok := s.data[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failSet[key]; err != nil {
		return err
	}
	s.data[key] = value
	s.writes++
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Keys returns every stored key in sorted order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Snapshot returns a copy of the stored entries.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Writes returns the number of successful Set calls.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// FailGet makes Get on key return err. A nil err clears the failure.
func (s *Store) FailGet(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failGet, key)
		return
	}
	s.failGet[key] = err
}

// FailSet makes Set on key return err. A nil err clears the failure.
func (s *Store) FailSet(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failSet, key)
		return
	}
	s.failSet[key] = err
}
