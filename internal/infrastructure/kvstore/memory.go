package kvstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is an in-process Store.
//
// Expired keys are treated as absent when read and removed lazily; there is no
// background sweeper. Values do not survive a restart, so MemoryStore is only
// suitable for tests and single-process development.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
	closed  bool
}

// NewMemoryStore creates an empty in-memory store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates an empty in-memory store that reads time from now.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

// lookup returns the live entry for key. Caller must hold mu.
func (m *MemoryStore) lookup(key string) (memoryEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (m *MemoryStore) check(ctx context.Context, op, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s %q: %w: %w", op, key, ErrUnavailable, err)
	}
	if m.closed {
		return fmt.Errorf("%s %q: %w: store closed", op, key, ErrUnavailable)
	}
	return nil
}

// Get returns the value stored at key.
func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, "get", key); err != nil {
		return "", err
	}
	e, ok := m.lookup(key)
	if !ok {
		return "", fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	return e.value, nil
}

// Set stores value at key without expiry.
func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	return m.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores value at key with an expiry. A zero ttl means no expiry.
func (m *MemoryStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, "set", key); err != nil {
		return err
	}
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, "delete", key); err != nil {
		return err
	}
	delete(m.entries, key)
	return nil
}

// Take returns and removes the value at key.
func (m *MemoryStore) Take(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, "take", key); err != nil {
		return "", err
	}
	e, ok := m.lookup(key)
	if !ok {
		return "", fmt.Errorf("take %q: %w", key, ErrNotFound)
	}
	delete(m.entries, key)
	return e.value, nil
}

// Ping reports ErrUnavailable once the store is closed.
func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.check(ctx, "ping", "")
}

// Close marks the store closed. Subsequent operations return ErrUnavailable.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Len returns the number of live keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.entries {
		if _, ok := m.lookup(k); ok {
			n++
		}
	}
	return n
}

var _ Store = (*MemoryStore)(nil)
