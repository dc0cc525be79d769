package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"stackstore-be/internal/transport"
	"stackstore-be/internal/utils"

	"golang.org/x/time/rate"
)

// Rate limit tiers
const (
	// auth, checkout, payment webhook
	limitStrict = rate.Limit(2)
	burstStrict = 5

	limitGeneral = rate.Limit(10)
	burstGeneral = 20

	// debounced cart/wishlist sync from shopper clients
	limitSync = rate.Limit(20)
	burstSync = 40

	// trusted services presenting X-Service-Auth
	limitInternal = rate.Limit(100)
	burstInternal = 200
)

const visitorTTL = 3 * time.Minute

var strictPaths = []string{"/api/stripe/webhook", "/api/checkout", "/api/auth/"}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	internalKey string
	now         func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

func NewRateLimiter(internalKey string) *RateLimiter {
	return &RateLimiter{
		internalKey: internalKey,
		now:         time.Now,
		visitors:    make(map[string]*visitor),
	}
}

// Run evicts idle visitors every minute until ctx is done.
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evict()
		}
	}
}

func (l *RateLimiter) evict() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(l.visitors, key)
		}
	}
}

func (l *RateLimiter) get(key string, r rate.Limit, b int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r, b)}
		l.visitors[key] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := l.resolveTier(r)

		// same identity gets separate buckets per tier, e.g. "user:1:strict"
		key := fmt.Sprintf("%s:%s", identity(r), tier)

		if !l.get(key, limit, burst).Allow() {
			w.Header().Set("Retry-After", "1")
			transport.WriteError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) resolveTier(r *http.Request) (rate.Limit, int, string) {
	if l.internalKey != "" && r.Header.Get("X-Service-Auth") == l.internalKey {
		return limitInternal, burstInternal, "internal"
	}

	for _, p := range strictPaths {
		if strings.HasPrefix(r.URL.Path, p) {
			return limitStrict, burstStrict, "strict"
		}
	}

	if r.URL.Path == "/api/user/cart" || r.URL.Path == "/api/user/wishlist" {
		return limitSync, burstSync, "sync"
	}

	return limitGeneral, burstGeneral, "general"
}

func identity(r *http.Request) string {
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		return fmt.Sprintf("user:%d", userID)
	}
	if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" {
		return "device:" + deviceID
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
