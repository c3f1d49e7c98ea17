package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nerrad567/spaceapi-core/internal/infrastructure/config"
)

// RedisStore is a Store backed by a pooled go-redis client.
//
// go-redis checks a connection out of the pool for each command and returns
// it on every exit path, so a RedisStore can be shared by all requests.
type RedisStore struct {
	rdb       *redis.Client
	opTimeout time.Duration
}

// NewRedisStore creates a Redis-backed store from the store configuration.
//
// The pool is created lazily: an unreachable server does not fail construction,
// it surfaces as ErrUnavailable on the first operation. Use Ping to check
// connectivity at startup.
func NewRedisStore(cfg config.StoreConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing store url: %w", err)
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdle
	if cfg.PoolTimeout > 0 {
		opts.PoolTimeout = cfg.PoolTimeout
	}
	if cfg.OperationTimeout > 0 {
		opts.DialTimeout = cfg.OperationTimeout
		opts.ReadTimeout = cfg.OperationTimeout
		opts.WriteTimeout = cfg.OperationTimeout
	}

	return NewRedisStoreFromOptions(opts, cfg.OperationTimeout), nil
}

// NewRedisStoreFromOptions wraps a client built from opts.
// opTimeout bounds each operation; zero leaves the caller's context untouched.
func NewRedisStoreFromOptions(opts *redis.Options, opTimeout time.Duration) *RedisStore {
	return &RedisStore{
		rdb:       redis.NewClient(opts),
		opTimeout: opTimeout,
	}
}

func (s *RedisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// Get returns the value stored at key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	v, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		return "", classify("get", key, err)
	}
	return v, nil
}

// Set stores value at key without expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores value at key with an expiry. A zero ttl means no expiry.
func (s *RedisStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return classify("set", key, err)
	}
	return nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return classify("delete", key, err)
	}
	return nil
}

// Take returns and removes the value at key using GETDEL (Redis 6.2+).
func (s *RedisStore) Take(ctx context.Context, key string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	v, err := s.rdb.GetDel(ctx, key).Result()
	if err != nil {
		return "", classify("take", key, err)
	}
	return v, nil
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return classify("ping", "", err)
	}
	return nil
}

// PoolStats returns the go-redis pool counters.
func (s *RedisStore) PoolStats() *redis.PoolStats {
	return s.rdb.PoolStats()
}

// Close closes the pool. Subsequent operations return ErrUnavailable.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// classify maps a go-redis error onto the package sentinels.
//
// redis.Nil is itself a redis.Error, so it must be checked first. Anything
// that is not a server reply (pool timeout, dial failure, i/o timeout,
// context deadline, closed client) means the store could not be reached.
func classify(op, key string, err error) error {
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%s %q: %w", op, key, ErrNotFound)
	}

	var reply redis.Error
	if errors.As(err, &reply) {
		return fmt.Errorf("%s %q: %w: %w", op, key, ErrBackend, err)
	}

	return fmt.Errorf("%s %q: %w: %w", op, key, ErrUnavailable, err)
}

// Compile-time interface check.
var _ Store = (*RedisStore)(nil)
