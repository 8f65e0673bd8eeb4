package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/sakif/medassoc/internal/metrics"
)

// Limiter decides whether the client identified by key may proceed.
// When it may not, retryAfter says how long until it may.
type Limiter interface {
	Allow(ctx context.Context, key string) (ok bool, retryAfter time.Duration, err error)
	// Kind labels the limiter in metrics ("memory" or "redis").
	Kind() string
}

// maxTrackedClients bounds MemoryLimiter's map. Past it the map is reset,
// which at worst hands every client a fresh bucket.
const maxTrackedClients = 10_000

// MemoryLimiter is a token bucket per key, local to this process.
type MemoryLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewMemoryLimiter allows perMinute requests per minute per key, with up to
// burst requests back to back.
func NewMemoryLimiter(perMinute, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
	}
}

func (l *MemoryLimiter) Kind() string { return "memory" }

func (l *MemoryLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= maxTrackedClients {
			l.limiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	r := l.get(key).Reserve()
	if !r.OK() {
		return false, time.Minute, nil
	}
	if d := r.Delay(); d > 0 {
		// Not taking the token: a rejected attempt must not push the
		// next allowed one further out.
		r.Cancel()
		return false, d, nil
	}
	return true, 0, nil
}

// RedisLimiter is a fixed window counter shared by every process using the
// same Redis. The first hit in a window creates the key with a TTL of one
// window; the key's remaining TTL is the Retry-After.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedisLimiter allows perMinute requests per key per minute.
func NewRedisLimiter(client *redis.Client, perMinute int) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: "medassoc:throttle:",
		limit:  int64(perMinute),
		window: time.Minute,
	}
}

func (l *RedisLimiter) Kind() string { return "redis" }

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	redisKey := l.prefix + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("throttle: incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("throttle: expire: %w", err)
		}
	}
	if count <= l.limit {
		return true, 0, nil
	}

	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		// A key without TTL would block forever; put one back.
		_ = l.client.Expire(ctx, redisKey, l.window).Err()
		ttl = l.window
	}
	return false, ttl, nil
}

// Throttle rejects requests over the limiter's budget with 429 and a
// Retry-After header. Clients are keyed by the IP in RemoteAddr: the peer
// address, or the forwarded client address when the server trusts proxy
// headers and chi's RealIP has rewritten it.
//
// If the limiter itself fails (Redis down) the request is let through and
// the failure logged: an outage of the throttle must not lock the admin out.
func Throttle(l Limiter, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			ok, retryAfter, err := l.Allow(r.Context(), "ip:"+ip)
			if err != nil {
				logger.Error("throttle check failed",
					slog.String("limiter", l.Kind()),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				m.ThrottleRejected.WithLabelValues(l.Kind()).Inc()
				logger.Warn("request throttled",
					slog.String("ip", ip),
					slog.String("path", r.URL.Path),
				)
				writeTooManyRequests(w, retryAfter)
				return
			}

			m.ThrottleAllowed.WithLabelValues(l.Kind()).Inc()
			next.ServeHTTP(w, r)
		})
	}
}

const throttledMessage = "Too many attempts, please try again later"

func writeTooManyRequests(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "rate_limited",
		"message": throttledMessage,
		"detail":  throttledMessage,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
