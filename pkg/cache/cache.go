package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service is the cache contract shared by the memory, Redis and layered
// backends. Values are stored JSON encoded (strings and byte slices raw), so
// every backend round-trips typed values the same way. A non-positive
// expiration means the entry does not expire.
type Service interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Get(ctx context.Context, key string, dest any) error
	Delete(ctx context.Context, keys ...string) error
	// Increment adds one to an integer counter, creating it at 1.
	Increment(ctx context.Context, key string) (int64, error)
	// Expire sets a TTL on an existing key and reports whether it existed.
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
	Close() error
}

// GetTyped reads key into a fresh T.
func GetTyped[T any](ctx context.Context, c Service, key string) (T, error) {
	var obj T
	err := c.Get(ctx, key, &obj)
	return obj, err
}
