package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/shashiranjanraj/pustak/pkg/response"
)

// bucket is a simple token bucket refilled on access.
type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimit applies a per-client-IP token bucket: rps requests per
// second with a burst ceiling. Stale buckets are evicted in-line.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		buckets = make(map[string]*bucket)
		sweep   = time.Now()
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			now := time.Now()

			mu.Lock()
			if now.Sub(sweep) > 5*time.Minute {
				for key, b := range buckets {
					if now.Sub(b.lastSeen) > 10*time.Minute {
						delete(buckets, key)
					}
				}
				sweep = now
			}

			b, ok := buckets[ip]
			if !ok {
				b = &bucket{tokens: float64(burst)}
				buckets[ip] = b
			}

			b.tokens += now.Sub(b.lastSeen).Seconds() * rps
			if b.tokens > float64(burst) {
				b.tokens = float64(burst)
			}
			b.lastSeen = now

			allowed := b.tokens >= 1
			if allowed {
				b.tokens--
			}
			mu.Unlock()

			if !allowed {
				response.Error(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
