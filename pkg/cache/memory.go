package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

type memoryItem struct {
	value    []byte
	expireAt time.Time // zero means no expiry
}

func (m *memoryItem) expired(now time.Time) bool {
	return !m.expireAt.IsZero() && now.After(m.expireAt)
}

// MemoryCache is a size-bounded in-process Service. The least recently used
// entry is evicted when MaxSize is reached; expired entries are dropped on
// access and by a periodic janitor.
type MemoryCache struct {
	// mu serializes read-modify-write sequences; the LRU is itself safe
	// for single operations.
	mu    sync.Mutex
	items *lru.Cache

	janitor   *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	items, err := lru.New(max(1, cfg.MaxSize))
	if err != nil {
		panic(fmt.Sprintf("memory cache: %v", err))
	}
	mc := &MemoryCache{
		items:   items,
		janitor: time.NewTicker(cfg.CleanupInterval),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go mc.cleanup()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	mc.mu.Lock()
	mc.items.Add(key, &memoryItem{value: data, expireAt: mc.expiry(expiration)})
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest any) error {
	mc.mu.Lock()
	item, ok := mc.live(key, true)
	var data []byte
	if ok {
		data = item.value
	}
	mc.mu.Unlock()
	if !ok {
		return ErrCacheMiss
	}
	return decode(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		mc.items.Remove(key)
	}
	return nil
}

func (mc *MemoryCache) Increment(_ context.Context, key string) (int64, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, ok := mc.live(key, true)
	if !ok {
		mc.items.Add(key, &memoryItem{value: []byte("1")})
		return 1, nil
	}
	n, err := strconv.ParseInt(string(item.value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("value at %s is not an integer", key)
	}
	n++
	// Readers may still hold the old slice.
	item.value = strconv.AppendInt(nil, n, 10)
	return n, nil
}

func (mc *MemoryCache) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, ok := mc.live(key, false)
	if !ok {
		return false, nil
	}
	item.expireAt = mc.expiry(expiration)
	return true, nil
}

// Len reports the number of live entries.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	n := 0
	now := mc.now()
	for _, k := range mc.items.Keys() {
		if v, ok := mc.items.Peek(k); ok && !v.(*memoryItem).expired(now) {
			n++
		}
	}
	return n
}

// live returns an unexpired item, removing it if it has expired. touch
// marks the entry as recently used. Caller holds mu.
func (mc *MemoryCache) live(key string, touch bool) (*memoryItem, bool) {
	var (
		v  any
		ok bool
	)
	if touch {
		v, ok = mc.items.Get(key)
	} else {
		v, ok = mc.items.Peek(key)
	}
	if !ok {
		return nil, false
	}
	item := v.(*memoryItem)
	if item.expired(mc.now()) {
		mc.items.Remove(key)
		return nil, false
	}
	return item, true
}

func (mc *MemoryCache) expiry(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return mc.now().Add(d)
}

func (mc *MemoryCache) cleanup() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.janitor.C:
		}
		mc.mu.Lock()
		now := mc.now()
		for _, k := range mc.items.Keys() {
			if v, ok := mc.items.Peek(k); ok && v.(*memoryItem).expired(now) {
				mc.items.Remove(k)
			}
		}
		mc.mu.Unlock()
	}
}

// Close stops the janitor. The cache stays readable.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() {
		mc.janitor.Stop()
		close(mc.done)
	})
	return nil
}

var _ Service = (*MemoryCache)(nil)
