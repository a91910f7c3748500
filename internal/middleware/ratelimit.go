package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// sweepInterval bounds how often expired buckets are dropped.
const sweepInterval = time.Minute

type Limiter interface {
	Allow(key string, limit int, window time.Duration) bool
}

// RateLimiter is a fixed-window limiter kept in process memory. Buckets
// whose window has ended are swept as requests arrive.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*rateBucket
	now       func() time.Time
	lastSweep time.Time
}

type rateBucket struct {
	count     int
	windowEnd time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{buckets: make(map[string]*rateBucket), now: time.Now}
}

func (r *RateLimiter) Allow(key string, limit int, window time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if now.Sub(r.lastSweep) >= sweepInterval {
		r.sweep(now)
	}
	bucket, ok := r.buckets[key]
	if !ok || now.After(bucket.windowEnd) {
		r.buckets[key] = &rateBucket{count: 1, windowEnd: now.Add(window)}
		return true
	}
	if bucket.count >= limit {
		return false
	}
	bucket.count++
	return true
}

func (r *RateLimiter) sweep(now time.Time) {
	for key, b := range r.buckets {
		if now.After(b.windowEnd) {
			delete(r.buckets, key)
		}
	}
	r.lastSweep = now
}

// RateLimit rejects requests with 429 once keyFn's key exceeds limit within
// window. Requests with an empty key are not limited.
func RateLimit(limiter Limiter, keyFn func(*http.Request) string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow(key, limit, window) {
				w.Header().Set("Retry-After", retryAfter(window))
				respondWithError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserKey limits per authenticated user under prefix.
func UserKey(prefix string) func(*http.Request) string {
	return func(r *http.Request) string {
		user, ok := UserFromContext(r.Context())
		if !ok {
			return ""
		}
		return prefix + ":" + user.ID.String()
	}
}

// IPKey limits per client address under prefix.
func IPKey(prefix string) func(*http.Request) string {
	return func(r *http.Request) string {
		return prefix + ":" + ClientIP(r)
	}
}

// ClientIP returns the host part of r.RemoteAddr. Forwarding headers are
// not read here; chi's RealIP middleware has already applied them to
// RemoteAddr for requests that passed through the proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfter(window time.Duration) string {
	secs := int(window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
