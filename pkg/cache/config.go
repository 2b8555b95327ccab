package cache

import (
	"net"
	"strconv"
	"time"
)

type RedisOption func(*RedisConfig)

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	IOTimeout    time.Duration
	// Prefix namespaces every key, so several services can share one DB.
	Prefix string
}

func defaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		IOTimeout:    3 * time.Second,
		Prefix:       "cosmicoptic",
	}
}

func WithRedisAddr(host string, port int) RedisOption {
	return func(c *RedisConfig) {
		if host != "" && port > 0 {
			c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
		}
	}
}

func WithRedisAuth(password string, db int) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
		c.DB = db
	}
}

func WithRedisPool(size, minIdle int) RedisOption {
	return func(c *RedisConfig) {
		if size > 0 {
			c.PoolSize = size
		}
		if minIdle >= 0 {
			c.MinIdleConns = minIdle
		}
	}
}

// WithRedisTimeouts sets the dial timeout and the per-command read/write
// timeout.
func WithRedisTimeouts(dial, io time.Duration) RedisOption {
	return func(c *RedisConfig) {
		if dial > 0 {
			c.DialTimeout = dial
		}
		if io > 0 {
			c.IOTimeout = io
		}
	}
}

func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) { c.Prefix = prefix }
}

type MemoryOption func(*MemoryConfig)

type MemoryConfig struct {
	// MaxSize bounds the number of entries; the least recently used one is
	// evicted past it.
	MaxSize         int
	CleanupInterval time.Duration
}

func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		if size > 0 {
			c.MaxSize = size
		}
	}
}

func WithMemoryCleanup(interval time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		if interval > 0 {
			c.CleanupInterval = interval
		}
	}
}

type LayeredOption func(*LayeredConfig)

// LayeredConfig sizes the in-process tier of a LayeredCache.
type LayeredConfig struct {
	LocalSize int
	LocalTTL  time.Duration
}

func WithLocalSize(size int) LayeredOption {
	return func(c *LayeredConfig) {
		if size > 0 {
			c.LocalSize = size
		}
	}
}

// WithLocalTTL caps how long the local tier may serve an entry without
// consulting Redis.
func WithLocalTTL(ttl time.Duration) LayeredOption {
	return func(c *LayeredConfig) {
		if ttl > 0 {
			c.LocalTTL = ttl
		}
	}
}
