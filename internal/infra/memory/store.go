// Package memory is a process-local port.KVStore, used by tests and by
// DATA_BACKEND=memory.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Store is a map guarded by a RWMutex. Values are copied on the way in
// and out.
type Store struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = slices.Clone(value)
	return nil
}

func (s *Store) SetMany(_ context.Context, entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range entries {
		s.items[k] = slices.Clone(v)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.DeleteMany(ctx, []string{key})
}

func (s *Store) DeleteMany(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.items, k)
	}
	return nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}
