package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sakif/heardle/internal/auth"
)

const (
	// limiterCleanupThreshold is the map size above which idle limiters are pruned.
	limiterCleanupThreshold = 500
	limiterMaxIdle          = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter hands out one token bucket per key.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	r       rate.Limit
	b       int
	now     func() time.Time
}

// NewKeyedRateLimiter allows perSecond events per key with the given burst.
func NewKeyedRateLimiter(perSecond float64, burst int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		entries: make(map[string]*limiterEntry),
		r:       rate.Limit(perSecond),
		b:       burst,
		now:     time.Now,
	}
}

// Limiter returns the bucket for key, pruning idle buckets once the map
// grows past limiterCleanupThreshold.
func (l *KeyedRateLimiter) Limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.entries) > limiterCleanupThreshold {
		cutoff := now.Add(-limiterMaxIdle)
		for k, e := range l.entries {
			if e.lastSeen.Before(cutoff) {
				delete(l.entries, k)
			}
		}
	}

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (l *KeyedRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// RateLimit rejects requests over the limit with 429. Requests are keyed by
// the player set by auth.ResolvePlayer, falling back to the client IP, so
// players behind one NAT do not share a bucket.
func RateLimit(l *KeyedRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lim := l.Limiter(rateKey(r))
			if !lim.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(lim.Limit())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate_limited","message":"too many guesses, slow down"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateKey(r *http.Request) string {
	if p, ok := auth.PlayerFromContext(r.Context()); ok {
		return "player:" + p.ID
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// retryAfterSeconds is the wait for one token, rounded up to whole seconds.
func retryAfterSeconds(limit rate.Limit) int {
	if limit <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1/float64(limit))))
}
