package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/haskel/readalloc/internal/config"
)

// maxTrackedClients bounds the per-client limiter map; it is reset when full.
const maxTrackedClients = 10000

// RateLimit limits requests with a token bucket refilled at
// RequestsPerSecond up to Burst. With PerIP set every client address gets
// its own bucket.
func RateLimit(cfg config.RateLimitConfig) Middleware {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	var limiterFor func(r *http.Request) *rate.Limiter
	if cfg.PerIP {
		clients := newClientLimiters(cfg.RequestsPerSecond, cfg.Burst)
		limiterFor = func(r *http.Request) *rate.Limiter {
			return clients.get(clientIP(r))
		}
	} else {
		shared := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
		limiterFor = func(*http.Request) *rate.Limiter {
			return shared
		}
	}

	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RequestsPerSecond)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiterFor(r).Allow() {
				w.Header().Set("Retry-After", retryAfter)
				WriteError(w, r, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newClientLimiters(rps float64, burst int) *clientLimiters {
	return &clientLimiters{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (c *clientLimiters) get(ip string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[ip]
	if !ok {
		if len(c.limiters) >= maxTrackedClients {
			c.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(c.rps, c.burst)
		c.limiters[ip] = limiter
	}
	return limiter
}

func (c *clientLimiters) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.limiters)
}

// clientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
