package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// visitorIdleTTL is how long a client may stay idle before its bucket is
// dropped. Sweeps run opportunistically from Allow, so an idle API holds no
// background goroutine.
const visitorIdleTTL = 10 * time.Minute

// Limiter throttles clients with one token bucket per client key. Every
// request spends a token; tokens refill continuously at the configured rate
// up to the burst ceiling.
type Limiter struct {
	perSecond float64
	burst     float64

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

type visitor struct {
	tokens float64
	seen   time.Time
}

// NewLimiter creates a limiter granting perSecond sustained requests with
// bursts up to burst per client key.
func NewLimiter(perSecond float64, burst int) *Limiter {
	return &Limiter{
		perSecond: perSecond,
		burst:     float64(burst),
		visitors:  make(map[string]*visitor),
		lastSweep: time.Now(),
	}
}

// Allow spends one token for key at the given instant. A new key starts with
// a full bucket.
func (l *Limiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(now)

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{tokens: l.burst}
		l.visitors[key] = v
	} else {
		v.tokens = math.Min(l.burst, v.tokens+now.Sub(v.seen).Seconds()*l.perSecond)
	}
	v.seen = now

	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

func (l *Limiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < visitorIdleTTL {
		return
	}
	for key, v := range l.visitors {
		if now.Sub(v.seen) > visitorIdleTTL {
			delete(l.visitors, key)
		}
	}
	l.lastSweep = now
}

// clientKey is the caller's IP without the ephemeral port, so one browser
// session is one bucket. RealIP runs earlier in the chain, so RemoteAddr
// already reflects the proxy headers.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimit rejects callers that exhaust their token bucket with 429 and a
// Retry-After hint sized to the refill rate.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := NewLimiter(perSecond, burst)
	retryAfter := strconv.Itoa(int(math.Ceil(1 / perSecond)))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientKey(r), time.Now()) {
				w.Header().Set("Retry-After", retryAfter)
				http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
