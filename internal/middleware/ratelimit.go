package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter decides whether the request identified by key may proceed.
type Limiter interface {
	Limit(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryLimiter is a per-process token bucket per key. It allows limit
// requests per window with a burst of limit.
type MemoryLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*keyLimiter
	rate      rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		limiters: make(map[string]*keyLimiter),
		rate:     rate.Limit(float64(limit) / window.Seconds()),
		burst:    limit,
		idle:     2 * window,
		now:      time.Now,
	}
}

func (m *MemoryLimiter) Limit(_ context.Context, key string) (bool, time.Duration, error) {
	now := m.now()

	m.mu.Lock()
	m.sweep(now)
	kl, ok := m.limiters[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(m.rate, m.burst)}
		m.limiters[key] = kl
	}
	kl.lastAccess = now
	m.mu.Unlock()

	res := kl.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, m.retryAfter(), nil
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

// sweep drops keys idle for longer than two windows. Caller holds mu.
func (m *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.idle {
		return
	}
	for k, kl := range m.limiters {
		if now.Sub(kl.lastAccess) > m.idle {
			delete(m.limiters, k)
		}
	}
	m.lastSweep = now
}

func (m *MemoryLimiter) retryAfter() time.Duration {
	return time.Duration(float64(time.Second) / float64(m.rate))
}

func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}

// ClientIP prefers the first X-Forwarded-For hop, then RemoteAddr.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit throttles by client IP and path. When the limiter backend fails
// the request is let through and the failure logged.
func RateLimit(l Limiter, log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Named("ratelimit")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientIP(r) + ":" + r.URL.Path
			allowed, retry, err := l.Limit(r.Context(), key)
			if err != nil {
				log.Warn("Rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				secs := int(math.Ceil(retry.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				log.Debug("Rate limit exceeded", zap.String("key", key))
				writeError(w, domain.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
