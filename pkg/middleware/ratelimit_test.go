package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newLimitedHandler(cfg RateLimitConfig) (*RateLimiter, http.Handler) {
	l := NewRateLimiter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return l, l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/eligible_reviews", nil)
	req.RemoteAddr = remote
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimit_WithinBurst(t *testing.T) {
	_, h := newLimitedHandler(RateLimitConfig{RPS: 1, Burst: 5})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "192.168.1.1:1234").Code, "request %d", i+1)
	}
}

func TestRateLimit_ExceedingBurstReturns429(t *testing.T) {
	_, h := newLimitedHandler(RateLimitConfig{RPS: 0.001, Burst: 2})
	hit(h, "10.0.0.1:1")
	hit(h, "10.0.0.1:1")

	rr := hit(h, "10.0.0.1:1")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	_, h := newLimitedHandler(RateLimitConfig{RPS: 0.001, Burst: 1})
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1").Code)
}

func TestRateLimit_SweepsIdleClients(t *testing.T) {
	l, h := newLimitedHandler(RateLimitConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	now := time.Now()
	l.now = func() time.Time { return now }

	hit(h, "10.0.0.1:1")
	hit(h, "10.0.0.2:1")
	assert.Equal(t, 2, l.tracked())

	now = now.Add(2 * time.Minute)
	hit(h, "10.0.0.3:1")
	assert.Equal(t, 1, l.tracked())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.9:80", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.9:80", "198.51.100.2"},
		{"garbage header", map[string]string{"X-Forwarded-For": "nope"}, "10.0.0.9:80", "10.0.0.9"},
		{"remote without port", nil, "10.0.0.9", "10.0.0.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
