// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"io"
)

// KVStore persists raw values by key. Values are the JSON text of one list.
type KVStore interface {
	// Get returns found=false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany writes every entry, atomically where the backend allows.
	SetMany(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, key string) error
	// DeleteMany removes every key in one call, atomically where the
	// backend allows.
	DeleteMany(ctx context.Context, keys []string) error
	// Keys lists the stored keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
}

// BlobInfo describes a stored document.
type BlobInfo struct {
	ContentType string
	Size        int64
}

// BlobStore holds uploaded vehicle documents.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, *BlobInfo, error)
	Delete(ctx context.Context, key string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
