// Package storage defines the key-value object store that backs the group
// registry. Every group is one object, keyed by name.
package storage

import (
	"context"
	"time"
)

// ObjectStore defines the interface for a backing object store.
// Implementations must be safe for concurrent use.
type ObjectStore interface {
	// Close releases the store's resources.
	Close() error

	// Put writes value under key, replacing any existing object.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the object stored under key, or domain.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object stored under key, or returns domain.ErrNotFound.
	Delete(ctx context.Context, key string) error

	// ListKeys returns every key starting with prefix in ascending order.
	// Implementations drain any pagination of the underlying store.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// ConditionalPutter is implemented by stores that can create an object only
// when the key is unused, atomically.
type ConditionalPutter interface {
	// PutIfAbsent writes value under key, or returns domain.ErrAlreadyExists
	// without modifying the existing object.
	PutIfAbsent(ctx context.Context, key string, value []byte) error
}

// Backend names accepted by configuration.
const (
	BackendMemory = "memory"
	BackendSQL    = "sql"
	BackendObject = "object"
)

// WithTimeout bounds a single store call. A zero timeout leaves ctx unbounded.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
