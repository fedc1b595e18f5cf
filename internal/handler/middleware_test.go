package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/auth"
	"storefront/internal/config"
)

func testTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(&config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
	})
}

func identityEcho(t *testing.T) (http.Handler, *struct {
	userID  string
	isAdmin bool
	called  bool
}) {
	t.Helper()
	state := &struct {
		userID  string
		isAdmin bool
		called  bool
	}{}
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state.called = true
		state.userID, _ = UserIDFromContext(r.Context())
		state.isAdmin = IsAdminFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return h, state
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	tokens := testTokenManager()
	token, err := tokens.Issue("user-1", false)
	require.NoError(t, err)

	next, state := identityEcho(t)
	handler := RequireAuth(tokens)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, state.called)
	assert.Equal(t, "user-1", state.userID)
	assert.False(t, state.isAdmin)
}

func TestRequireAuthRejections(t *testing.T) {
	tokens := testTokenManager()
	next, state := identityEcho(t)
	handler := RequireAuth(tokens)(next)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, state.called)

			var resp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
		})
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	expired := auth.NewTokenManager(&config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenTTL: -time.Minute},
	})
	token, err := expired.Issue("user-1", false)
	require.NoError(t, err)

	next, state := identityEcho(t)
	handler := RequireAuth(testTokenManager())(next)

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, state.called)
}

func TestRequireAdmin(t *testing.T) {
	tokens := testTokenManager()
	next, state := identityEcho(t)
	handler := RequireAuth(tokens)(RequireAdmin(next))

	adminToken, err := tokens.Issue("admin", true)
	require.NoError(t, err)
	userToken, err := tokens.Issue("user-1", false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, state.called)

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, state.isAdmin)
}

type fakeLimiter struct {
	counts map[string]int64
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[key]++
	return f.counts[key] <= limit, nil
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"203.0.113.7:51234", "203.0.113.7"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"2001:db8::1", "2001:db8::1"},
		{"203.0.113.7", "203.0.113.7"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remoteAddr
		assert.Equal(t, tt.want, clientIP(req), tt.remoteAddr)
	}
}

func TestRateLimitSeparatesIPv6Clients(t *testing.T) {
	next, _ := identityEcho(t)
	limiter := &fakeLimiter{}
	handler := RateLimit(limiter, "user", 1, time.Minute)(next)

	for _, addr := range []string{"2001:db8::1", "2001:db8::2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, addr)
	}
	assert.Len(t, limiter.counts, 2)
}

func TestRateLimit(t *testing.T) {
	next, _ := identityEcho(t)
	handler := RateLimit(&fakeLimiter{}, "contact", 2, time.Minute)(next)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client IP has its own window.
	req = httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	req.RemoteAddr = "198.51.100.4:40000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
