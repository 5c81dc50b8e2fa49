package storage

import (
	"context"
	"errors"
)

// statePrefix namespaces the editor entries inside the state database.
const statePrefix = "state/"

// StateStore is a KVStore backed by a BadgerEngine.
type StateStore struct {
	engine *BadgerEngine
}

var _ KVStore = (*StateStore)(nil)

// NewStateStore wraps engine as the editor's flat key-value store.
func NewStateStore(engine *BadgerEngine) *StateStore {
	return &StateStore{engine: engine}
}

// Get implements KVStore.
func (s *StateStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.engine.Get(ctx, stateKey(key))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(value), true, nil
}

// Set implements KVStore.
func (s *StateStore) Set(ctx context.Context, key, value string) error {
	return s.engine.Set(ctx, stateKey(key), []byte(value))
}

// Delete implements KVStore.
func (s *StateStore) Delete(ctx context.Context, key string) error {
	return s.engine.Delete(ctx, stateKey(key))
}

// Keys returns every stored key in byte order.
func (s *StateStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.engine.Scan(ctx, []byte(statePrefix), func(key, _ []byte) bool {
		keys = append(keys, string(key[len(statePrefix):]))
		return true
	})
	return keys, err
}

func stateKey(key string) []byte {
	return []byte(statePrefix + key)
}
