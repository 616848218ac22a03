package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aegis-secure/internal/config"
	"aegis-secure/pkg/logger"
)

type staticSessions map[string]string

func (s staticSessions) ValidateSession(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(UserID(r.Context())))
}

func TestBearerAuth(t *testing.T) {
	h := BearerAuth(staticSessions{"good": "u-1"})(http.HandlerFunc(echoUser))

	cases := []struct {
		name   string
		header string
		query  string
		status int
		body   string
	}{
		{name: "valid header", header: "Bearer good", status: http.StatusOK, body: "u-1"},
		{name: "lowercase scheme", header: "bearer good", status: http.StatusOK, body: "u-1"},
		{name: "query token", query: "?access_token=good", status: http.StatusOK, body: "u-1"},
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer bad", status: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sms/all"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				require.Equal(t, tc.body, rec.Body.String())
			} else {
				require.Contains(t, rec.Body.String(), "UNAUTHORIZED")
			}
		})
	}
}

func TestBearerAuthSkipsPreflight(t *testing.T) {
	h := BearerAuth(staticSessions{})(http.HandlerFunc(echoUser))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/sms/all", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

type countingLimiter struct {
	keys  []string
	limit int
	err   error
}

func (c *countingLimiter) CheckRateLimit(_ context.Context, key string, limit int64, _ time.Duration) (bool, int64, time.Time, error) {
	c.keys = append(c.keys, key)
	if c.err != nil {
		return false, 0, time.Time{}, c.err
	}
	used := 0
	for _, k := range c.keys {
		if k == key {
			used++
		}
	}
	return used <= c.limit, limit - int64(used), time.Now().Add(time.Minute), nil
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	lim := &countingLimiter{limit: 2}
	h := RateLimiter(lim, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}, logger.NewNop())(http.HandlerFunc(echoUser))

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUserID(req.Context(), "u-9"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			require.NotEmpty(t, rec.Header().Get("Retry-After"))
		}
	}

	require.Equal(t, []int{200, 200, 429}, codes)
	require.Equal(t, "user:u-9", lim.keys[0])
}

func TestRateLimiterFailsOpenAndKeysByIP(t *testing.T) {
	lim := &countingLimiter{err: errors.New("redis down")}
	h := RateLimiter(lim, config.RateLimitConfig{RequestsPerMinute: 1}, logger.NewNop())(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ip:203.0.113.7", lim.keys[0])
}
