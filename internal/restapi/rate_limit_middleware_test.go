package restapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forsinka.transitdata.no/internal/app"
	"forsinka.transitdata.no/internal/appconf"
	"forsinka.transitdata.no/internal/clock"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_AllowsWithinBudget(t *testing.T) {
	rl := NewRateLimitMiddleware(5, time.Second, nil, clock.RealClock{})
	defer rl.Stop()

	handler := rl.Handler()(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/trains", nil)
		req.RemoteAddr = "203.0.113.1:12345"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i)
	}

	req := httptest.NewRequest(http.MethodGet, "/trains", nil)
	req.RemoteAddr = "203.0.113.1:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_SeparateBucketsPerClientIP(t *testing.T) {
	rl := NewRateLimitMiddleware(1, time.Second, nil, clock.RealClock{})
	defer rl.Stop()

	handler := rl.Handler()(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/trains", nil)
	first.RemoteAddr = "203.0.113.1:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	// The first caller exhausted its budget; a different IP still gets through.
	again := httptest.NewRequest(http.MethodGet, "/trains", nil)
	again.RemoteAddr = "203.0.113.1:2000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, again)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest(http.MethodGet, "/trains", nil)
	other.RemoteAddr = "203.0.113.2:1000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware_ForwardedForTakesPrecedence(t *testing.T) {
	rl := NewRateLimitMiddleware(1, time.Second, nil, clock.RealClock{})
	defer rl.Stop()

	handler := rl.Handler()(okHandler())

	// Both requests come through the same proxy but from different clients.
	first := httptest.NewRequest(http.MethodGet, "/trains", nil)
	first.RemoteAddr = "10.0.0.1:1000"
	first.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	second := httptest.NewRequest(http.MethodGet, "/trains", nil)
	second.RemoteAddr = "10.0.0.1:1000"
	second.Header.Set("X-Forwarded-For", "198.51.100.8, 10.0.0.1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware_ExemptKeyNeverLimited(t *testing.T) {
	rl := NewRateLimitMiddleware(0, time.Second, []string{"ops-dashboard"}, clock.RealClock{})
	defer rl.Stop()

	handler := rl.Handler()(okHandler())

	// Zero budget blocks everyone without the exempt key.
	blocked := httptest.NewRequest(http.MethodGet, "/trains", nil)
	blocked.RemoteAddr = "203.0.113.1:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, blocked)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	for i := 0; i < 10; i++ {
		exempt := httptest.NewRequest(http.MethodGet, "/trains?key=ops-dashboard", nil)
		exempt.RemoteAddr = "203.0.113.1:1000"
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, exempt)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestNewRestAPI_NonPositiveRateLimitDisablesLimiting(t *testing.T) {
	for _, limit := range []int{0, -1} {
		api := NewRestAPI(&app.Application{Config: appconf.Config{RateLimit: limit}})
		t.Cleanup(api.Shutdown)
		require.Nil(t, api.rateLimiter, "rate limit %d", limit)

		// Routes registered without a limiter never throttle.
		mux := http.NewServeMux()
		api.addRoute(mux, "GET /ping", 0, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		for i := 0; i < 50; i++ {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.RemoteAddr = "203.0.113.1:1000"
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	}

	api := NewRestAPI(&app.Application{
		Config: appconf.Config{RateLimit: 1},
		Clock:  clock.RealClock{},
	})
	t.Cleanup(api.Shutdown)
	assert.NotNil(t, api.rateLimiter)
}

func TestRateLimitMiddleware_CleanupEvictsIdleClients(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC))
	rl := NewRateLimitMiddleware(5, time.Second, nil, clk)
	defer rl.Stop()

	handler := rl.Handler()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/trains", nil)
	req.RemoteAddr = "203.0.113.1:1000"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	rl.mu.RLock()
	require.Len(t, rl.limiters, 1)
	rl.mu.RUnlock()

	clk.Advance(11 * time.Minute)
	rl.cleanupOnce()

	rl.mu.RLock()
	assert.Empty(t, rl.limiters)
	rl.mu.RUnlock()
}
