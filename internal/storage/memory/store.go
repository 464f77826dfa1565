package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bcnelson/cidr-group-central/internal/domain"
	"github.com/bcnelson/cidr-group-central/internal/storage"
)

// Store is an in-memory implementation of storage.ObjectStore.
// It is used by tests and by STORE_BACKEND=memory.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var (
	_ storage.ObjectStore       = (*Store)(nil)
	_ storage.ConditionalPutter = (*Store)(nil)
)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		objects: make(map[string][]byte),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = clone(value)
	return nil
}

func (s *Store) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[key]; exists {
		return domain.ErrAlreadyExists
	}
	s.objects[key] = clone(value)
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, exists := s.objects[key]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return clone(value), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[key]; !exists {
		return domain.ErrNotFound
	}
	delete(s.objects, key)
	return nil
}

func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// clone copies value so callers cannot mutate stored objects.
func clone(value []byte) []byte {
	out := make([]byte, len(value))
	copy(out, value)
	return out
}
