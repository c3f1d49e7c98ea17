package kvstore

import (
	"context"
	"time"
)

// Store is a string key-value store.
//
// Implementations must be safe for concurrent use. Every returned error
// matches exactly one of ErrNotFound, ErrUnavailable or ErrBackend under errors.Is.
type Store interface {
	// Get returns the value stored at key.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key without expiry, replacing any existing value and TTL.
	Set(ctx context.Context, key, value string) error

	// SetWithTTL stores value at key; the key is treated as absent once ttl elapses.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Take atomically returns and removes the value at key.
	// Two concurrent Takes of the same key never both succeed.
	Take(ctx context.Context, key string) (string, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error
}
