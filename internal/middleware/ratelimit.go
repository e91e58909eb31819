package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Limiter decides whether key may make another request. When it refuses,
// retry says how long until the window resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (ok bool, retry time.Duration, err error)
}

// RateLimit allows limit requests per client IP in each fixed window using
// process memory. A limit of zero or less disables it.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return RateLimitWith(NewMemoryLimiter(limit, per))
}

// RateLimitWith keys l by client IP. A limiter error lets the request through.
func RateLimitWith(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry, err := l.Allow(r.Context(), clientIP(r))
			if err != nil || ok {
				next.ServeHTTP(w, r)
				return
			}
			secs := int(retry / time.Second)
			if retry%time.Second != 0 || secs == 0 {
				secs++
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
		})
	}
}

type bucket struct {
	count int
	until time.Time
}

// MemoryLimiter is a fixed-window counter per key.
type MemoryLimiter struct {
	limit   int
	per     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
}

func NewMemoryLimiter(limit int, per time.Duration) *MemoryLimiter {
	return &MemoryLimiter{limit: limit, per: per, now: time.Now, buckets: make(map[string]*bucket)}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[key]
	if !ok || now.After(b.until) {
		if len(m.buckets) > 4096 {
			m.sweep(now)
		}
		b = &bucket{until: now.Add(m.per)}
		m.buckets[key] = b
	}
	if b.count >= m.limit {
		return false, b.until.Sub(now), nil
	}
	b.count++
	return true, 0, nil
}

func (m *MemoryLimiter) sweep(now time.Time) {
	for key, b := range m.buckets {
		if now.After(b.until) {
			delete(m.buckets, key)
		}
	}
}

// clientIP prefers the first valid X-Forwarded-For entry, then RemoteAddr.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
