package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CosmicOptic/pkg/cache"
	xhttp "CosmicOptic/pkg/http"
	applogger "CosmicOptic/pkg/logger"

	lru "github.com/hashicorp/golang-lru"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// Allower decides whether one more request for key may proceed.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// DefaultLimiterKeys bounds how many clients TokenBucket tracks at once.
const DefaultLimiterKeys = 10000

// minRefill is used when a non-positive refill rate is configured.
const minRefill = rate.Limit(1.0 / 3600)

// TokenBucket is an in-process limiter keyed by client. The least recently
// seen clients are forgotten once DefaultLimiterKeys is exceeded, which only
// ever refills their bucket.
type TokenBucket struct {
	mu       sync.Mutex
	limiters *lru.Cache
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewTokenBucket allows bursts of capacity and refills refillPerSec tokens per second.
func NewTokenBucket(capacity, refillPerSec float64) *TokenBucket {
	return newTokenBucket(capacity, refillPerSec, DefaultLimiterKeys)
}

func newTokenBucket(capacity, refillPerSec float64, maxKeys int) *TokenBucket {
	limiters, err := lru.New(maxKeys)
	if err != nil {
		panic(fmt.Sprintf("token bucket: %v", err))
	}
	limit := rate.Limit(refillPerSec)
	if limit <= 0 {
		limit = minRefill
	}
	return &TokenBucket{
		limiters: limiters,
		limit:    limit,
		burst:    max(1, int(capacity)),
		now:      time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	v, ok := l.limiters.Get(key)
	if !ok {
		v = rate.NewLimiter(l.limit, l.burst)
		l.limiters.Add(key, v)
	}
	l.mu.Unlock()
	return v.(*rate.Limiter).AllowN(l.now(), 1), nil
}

// WindowCounter is a fixed-window limiter backed by a shared cache so that
// several replicas enforce one budget.
type WindowCounter struct {
	c      cache.Service
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewWindowCounter(c cache.Service, limit int64, window time.Duration) *WindowCounter {
	return &WindowCounter{c: c, limit: limit, window: window, now: time.Now}
}

func (w *WindowCounter) Allow(ctx context.Context, key string) (bool, error) {
	slot := w.now().UnixNano() / int64(w.window)
	k := cache.GenerateKeyWithParams("ratelimit", key, slot)
	n, err := w.c.Increment(ctx, k)
	if err != nil {
		return false, fmt.Errorf("rate limit increment: %w", err)
	}
	if n == 1 {
		if _, err := w.c.Expire(ctx, k, w.window); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return n <= w.limit, nil
}

// RateLimit rejects requests with 429 once the client's budget is spent.
// Limiter failures let the request through.
func RateLimit(a Allower, l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, err := a.Allow(c.Request().Context(), c.RealIP())
			if err != nil {
				l.Warn("rate limiter unavailable", applogger.Error(err))
				return next(c)
			}
			if !ok {
				c.Response().Header().Set("Retry-After", "1")
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests"))
			}
			return next(c)
		}
	}
}

var (
	_ Allower = (*TokenBucket)(nil)
	_ Allower = (*WindowCounter)(nil)
)
