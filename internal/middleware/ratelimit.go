package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/physioai/physioai/internal/models"
)

// fixedWindow counts requests per caller within the current minute. Report
// generation is expensive (warehouse query + inference), so a coarse window
// is enough.
type fixedWindow struct {
	count   int
	resetAt time.Time
}

type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	limit   int
}

func NewRateLimiter(limitPerMinute int) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*fixedWindow),
		limit:   limitPerMinute,
	}
}

// Allow reports whether the caller identified by key may proceed, and how
// many requests remain in the current window.
func (rl *RateLimiter) Allow(key string) (remaining int, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, exists := rl.windows[key]
	if !exists || now.After(w.resetAt) {
		w = &fixedWindow{resetAt: now.Add(time.Minute)}
		rl.windows[key] = w
	}
	if w.count >= rl.limit {
		return 0, false
	}
	w.count++
	return rl.limit - w.count, true
}

func RateLimit(limitPerMinute int) func(http.Handler) http.Handler {
	rl := NewRateLimiter(limitPerMinute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Key: prefer API key, fall back to IP
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.RemoteAddr
			}

			remaining, ok := rl.Allow(key)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limitPerMinute))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !ok {
				w.Header().Set("Retry-After", "60")
				models.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
