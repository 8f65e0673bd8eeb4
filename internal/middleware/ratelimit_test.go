package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/medassoc/internal/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func throttled(l Limiter, m *metrics.Metrics) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return Throttle(l, m, discardLogger())(ok)
}

func hit(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestThrottle_Memory(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := throttled(NewMemoryLimiter(1, 2), m)

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:2222").Code, "same IP, other port, burst of 2")

	rec := hit(h, "10.0.0.1:3333")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t,
		`{"error":"rate_limited","message":"Too many attempts, please try again later","detail":"Too many attempts, please try again later"}`,
		rec.Body.String())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1111").Code, "other clients are unaffected")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ThrottleAllowed.WithLabelValues("memory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ThrottleRejected.WithLabelValues("memory")))
}

func TestMemoryLimiter_RejectionDoesNotConsume(t *testing.T) {
	l := NewMemoryLimiter(60, 1) // one token per second
	ctx := context.Background()

	ok, _, _ := l.Allow(ctx, "k")
	require.True(t, ok)

	_, first, _ := l.Allow(ctx, "k")
	_, second, _ := l.Allow(ctx, "k")
	assert.LessOrEqual(t, second, first, "rejected attempts must not push the wait out")
	assert.Greater(t, first, time.Duration(0))
}

func TestThrottle_Redis(t *testing.T) {
	srv, err := mr.Run()
	require.NoError(t, err)
	defer srv.Close()

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	m := metrics.New(prometheus.NewRegistry())
	h := throttled(NewRedisLimiter(client, 2), m)

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:2").Code)

	rec := hit(h, "10.0.0.1:3")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// The window expires with the key.
	srv.FastForward(61 * time.Second)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:4").Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ThrottleRejected.WithLabelValues("redis")))
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 0, errors.New("connection refused")
}

func (brokenLimiter) Kind() string { return "broken" }

func TestThrottle_FailsOpen(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := throttled(brokenLimiter{}, m)

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.RemoteAddr = "192.0.2.7:5050"
	assert.Equal(t, "192.0.2.7", clientIP(req))

	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", clientIP(req))

	// chi's RealIP sets RemoteAddr to a bare IP.
	req.RemoteAddr = "203.0.113.9"
	assert.Equal(t, "203.0.113.9", clientIP(req))
}
