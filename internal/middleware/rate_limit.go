package middleware

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	sweepInterval = 5 * time.Minute
	bucketIdleTTL = 10 * time.Minute
)

// KeyFunc picks the bucket a request is counted against
type KeyFunc func(c echo.Context) string

// ByIP counts requests per client address
func ByIP(c echo.Context) string {
	return "ip:" + c.RealIP()
}

// ByUser counts requests per authenticated user, falling back to the client address
func ByUser(c echo.Context) string {
	if userID := GetUserID(c); userID != 0 {
		return "user:" + strconv.Itoa(int(userID))
	}
	return ByIP(c)
}

// RateLimiter keeps one token bucket per key. Buckets idle for a while are
// swept by a background goroutine until Stop is called.
type RateLimiter struct {
	perMinute int
	limit     rate.Limit
	burst     int

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per key on average, with bursts of up to burst
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	rl := &RateLimiter{
		perMinute: perMinute,
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     burst,
		buckets:   make(map[string]*bucket),
		stop:      make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Allow reports whether a request counted against key may proceed now
func (r *RateLimiter) Allow(key string) bool {
	ok, _, _ := r.take(key, time.Now())
	return ok
}

// take spends one token from key's bucket. When none is available nothing is
// spent and wait says how long until one will be.
func (r *RateLimiter) take(key string, now time.Time) (ok bool, remaining int, wait time.Duration) {
	r.mu.Lock()
	b, found := r.buckets[key]
	if !found {
		b = &bucket{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.buckets[key] = b
	}
	b.lastSeen = now
	r.mu.Unlock()

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, 0, time.Minute
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, 0, delay
	}
	return true, int(math.Max(0, b.limiter.TokensAt(now))), 0
}

func (r *RateLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			r.mu.Lock()
			for key, b := range r.buckets {
				if now.Sub(b.lastSeen) > bucketIdleTTL {
					delete(r.buckets, key)
				}
			}
			r.mu.Unlock()
		case <-r.stop:
			return
		}
	}
}

// Stop ends the sweeper. Safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// RateLimitMiddleware counts every request against keyFn's bucket and answers
// 429 with Retry-After once the bucket is empty
func RateLimitMiddleware(rl *RateLimiter, keyFn KeyFunc) echo.MiddlewareFunc {
	limit := strconv.Itoa(rl.perMinute)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := keyFn(c)
			ok, remaining, wait := rl.take(key, time.Now())

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", limit)
			header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !ok {
				retryAfter := int(math.Ceil(wait.Seconds()))
				header.Set("Retry-After", strconv.Itoa(retryAfter))
				log.Warn().Str("key", key).Str("path", c.Path()).Int("retry_after", retryAfter).Msg("Rate limit exceeded")
				return rateLimitError(c, fmt.Sprintf("Too many requests. Retry in %d seconds.", retryAfter))
			}
			return next(c)
		}
	}
}
