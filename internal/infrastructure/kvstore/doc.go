// Package kvstore provides the key-value store that holds sensor values and
// update session records.
//
// Two implementations satisfy the Store interface:
//   - RedisStore: a pooled go-redis client, used in production
//   - MemoryStore: a mutex-guarded map, used in tests and single-process development
//
// Every failure is classified into one of three sentinels so callers can
// decide between "omit", "retry later" and "report":
//
//	ErrNotFound     the key is absent (or its TTL has elapsed)
//	ErrUnavailable  no connection could be obtained or the network call failed
//	ErrBackend      the server answered with an error reply
//
// Usage:
//
//	store, err := kvstore.NewRedisStore(cfg.Store)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	v, err := store.Get(ctx, "temp_room")
//	if errors.Is(err, kvstore.ErrNotFound) {
//	    // sensor has never been written
//	}
package kvstore
