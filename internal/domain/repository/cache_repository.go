package repository

import (
	"context"
	"time"
)

// CacheRepository is the shared (L2) cache contract. The tile cache owns
// serialization; the store is opaque bytes. A nil-data, nil-error Get is a
// miss. Failures must never surface to clients: the caller degrades to
// L1-only.
type CacheRepository interface {
	// Get returns the cached value or (nil, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Health checks the backing store.
	Health(ctx context.Context) error
}
