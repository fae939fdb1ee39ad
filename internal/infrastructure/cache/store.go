// Package cache implements timestamped read-through caching over pluggable
// key-value stores.
package cache

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by Store.Get when the key is absent.
var ErrCacheMiss = errors.New("cache: miss")

// Store is a byte-oriented key-value store. Expiry is not the store's
// concern; entries carry their own timestamp and ReadThrough decides
// freshness.
type Store interface {
	// Get returns the stored bytes or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set creates or replaces the entry.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Name identifies the backend in logs and metrics.
	Name() string
}

// Closer is implemented by stores holding connections.
type Closer interface {
	Close() error
}
