package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client key. A client may burst up
// to limit requests and regains limit tokens per window.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*visitor
	limit   int
	window  time.Duration
	every   rate.Limit
	now     func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter allowing limit requests per window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		clients: make(map[string]*visitor),
		limit:   limit,
		window:  window,
		every:   rate.Every(window / time.Duration(limit)),
		now:     time.Now,
	}
}

func (rl *RateLimiter) visitor(key string) *visitor {
	v, ok := rl.clients[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.clients[key] = v
	}
	v.lastSeen = rl.now()
	return v
}

// Allow reports whether a request for key may proceed and consumes a token
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.visitor(key).limiter.AllowN(rl.now(), 1)
}

// Remaining returns the whole tokens currently available to key
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, ok := rl.clients[key]
	if !ok {
		return rl.limit
	}
	tokens := int(v.limiter.TokensAt(rl.now()))
	if tokens < 0 {
		return 0
	}
	return tokens
}

// Cleanup drops clients idle for more than two windows and returns how many
// were removed.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-2 * rl.window)
	removed := 0
	for key, v := range rl.clients {
		if v.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

// RunCleanup calls Cleanup every window until stop is closed
func (rl *RateLimiter) RunCleanup(stop <-chan struct{}) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

// RateLimit limits requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitByKey limits requests per key returned by keyFunc
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	limitHeader := strconv.Itoa(limiter.limit)
	return func(c *gin.Context) {
		key := keyFunc(c)
		c.Header("X-RateLimit-Limit", limitHeader)

		if !limiter.Allow(key) {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int((limiter.window/time.Duration(limiter.limit)).Seconds())+1))
			abortWithError(c, http.StatusTooManyRequests, "ERR_RATE_LIMITED",
				"Too many requests. Please try again later.")
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
