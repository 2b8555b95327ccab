package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayeredCache_ReadsThroughAndWritesThrough(t *testing.T) {
	ctx := context.Background()
	backing, _ := newTestMemory(t)
	lc := NewLayeredCache(backing, WithLocalSize(8), WithLocalTTL(time.Minute))
	defer lc.local.Close()

	require.NoError(t, lc.Set(ctx, "k", payload{Name: "a"}, time.Hour))
	var p payload
	require.NoError(t, backing.Get(ctx, "k", &p))
	assert.Equal(t, "a", p.Name)

	// A value only present in the backing store is pulled into the local tier.
	require.NoError(t, backing.Set(ctx, "remote", payload{Name: "r"}, 0))
	require.NoError(t, lc.Get(ctx, "remote", &p))
	assert.Equal(t, "r", p.Name)
	require.NoError(t, lc.local.Get(ctx, "remote", &p))

	require.NoError(t, lc.Delete(ctx, "k", "remote"))
	assert.True(t, errors.Is(lc.Get(ctx, "k", &p), ErrCacheMiss))
	assert.True(t, errors.Is(backing.Get(ctx, "remote", &p), ErrCacheMiss))
}

func TestLayeredCache_CountersLiveInBackingStore(t *testing.T) {
	ctx := context.Background()
	backing, _ := newTestMemory(t)
	a := NewLayeredCache(backing)
	b := NewLayeredCache(backing)
	defer a.local.Close()
	defer b.local.Close()

	_, err := a.Increment(ctx, "hits")
	require.NoError(t, err)
	n, err := b.Increment(ctx, "hits")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ok, err := b.Expire(ctx, "hits", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLayeredCache_LocalTTLIsCapped(t *testing.T) {
	lc := &LayeredCache{ttl: 30 * time.Second}
	assert.Equal(t, 30*time.Second, lc.localTTL(0))
	assert.Equal(t, 30*time.Second, lc.localTTL(time.Hour))
	assert.Equal(t, 5*time.Second, lc.localTTL(5*time.Second))
}
