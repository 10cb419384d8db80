package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
}

func TestRequestID_KeepsInbound(t *testing.T) {
	h := RequestID(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS("http://localhost:3000")(okHandler)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/tts", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	h := rl.Middleware(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/analysis-chat", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodPost, "/api/analysis-chat", nil)
	other.RemoteAddr = "10.0.0.2:5555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	assert.Equal(t, http.StatusOK, rr.Code, "limits are per client")
}

func TestRedisRateLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	h := NewRedisRateLimiter(client, 1, time.Minute).Middleware(okHandler)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/tts", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTAuth(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	var subject string
	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = GetSubject(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": "dr-kim", "exp": time.Now().Add(time.Hour).Unix()}), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, "test-secret", jwt.MapClaims{"sub": "dr-kim", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"no subject", "Bearer " + signToken(t, "test-secret", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}), http.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, "test-secret", jwt.MapClaims{"sub": "dr-kim", "exp": time.Now().Add(time.Hour).Unix()}), http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			subject = ""
			req := httptest.NewRequest(http.MethodPost, "/api/analysis-chat", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tc.status, rr.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "dr-kim", subject)
			}
		})
	}
}

func TestJWTAuth_WebSocketToken(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	valid := signToken(t, "test-secret", jwt.MapClaims{"sub": "dr-kim", "exp": time.Now().Add(time.Hour).Unix()})
	forged := signToken(t, "other", jwt.MapClaims{"sub": "dr-kim", "exp": time.Now().Add(time.Hour).Unix()})

	var subject string
	h := auth.WebSocketMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = GetSubject(r.Context())
	}))

	tests := []struct {
		name   string
		query  string
		header string
		status int
	}{
		{"no token", "", "", http.StatusUnauthorized},
		{"query token", "?token=" + valid, "", http.StatusOK},
		{"forged query token", "?token=" + forged, "", http.StatusUnauthorized},
		{"header fallback", "", "Bearer " + valid, http.StatusOK},
		{"header wrong scheme", "", "Basic abc", http.StatusUnauthorized},
		{"query wins over header", "?token=" + forged, "Bearer " + valid, http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			subject = ""
			req := httptest.NewRequest(http.MethodGet, "/api/analysis-chat/ws"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tc.status, rr.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "dr-kim", subject)
			}
		})
	}
}

func TestGetSubject_EmptyWithoutAuth(t *testing.T) {
	assert.Empty(t, GetSubject(context.Background()))
}
