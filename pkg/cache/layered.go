package cache

import (
	"context"
	"time"
)

// LayeredCache fronts a Service with a small in-process LRU. Writes go
// through to the backing store; counters and TTL changes are served by the
// backing store alone so replicas agree on them.
type LayeredCache struct {
	local   *MemoryCache
	backing Service
	ttl     time.Duration
}

func NewLayeredCache(backing Service, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{LocalSize: 256, LocalTTL: 30 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredCache{
		local:   NewMemoryCache(WithMemoryMaxSize(cfg.LocalSize)),
		backing: backing,
		ttl:     cfg.LocalTTL,
	}
}

func (lc *LayeredCache) localTTL(expiration time.Duration) time.Duration {
	if expiration <= 0 || expiration > lc.ttl {
		return lc.ttl
	}
	return expiration
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if err := lc.backing.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.local.Set(ctx, key, value, lc.localTTL(expiration))
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest any) error {
	if err := lc.local.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := lc.backing.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = lc.local.Set(ctx, key, dest, lc.ttl)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.local.Delete(ctx, keys...)
	return lc.backing.Delete(ctx, keys...)
}

func (lc *LayeredCache) Increment(ctx context.Context, key string) (int64, error) {
	return lc.backing.Increment(ctx, key)
}

func (lc *LayeredCache) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	_ = lc.local.Delete(ctx, key)
	return lc.backing.Expire(ctx, key, expiration)
}

func (lc *LayeredCache) Close() error {
	_ = lc.local.Close()
	return lc.backing.Close()
}

var _ Service = (*LayeredCache)(nil)
