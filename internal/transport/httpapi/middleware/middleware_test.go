package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/wizmoney/internal/transport/httpapi/middleware"
	"github.com/kislikjeka/wizmoney/pkg/logger"
)

const testSecret = "test-secret-key-minimum-32-characters-long-for-security"

// =============================================================================
// JWT
// =============================================================================

func TestJWTService_GenerateAndValidateToken(t *testing.T) {
	svc := middleware.NewJWTService(testSecret)

	t.Run("round trip", func(t *testing.T) {
		token, err := svc.GenerateToken("user-1")
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Owner())
		assert.Equal(t, middleware.Issuer, claims.Issuer)
		assert.True(t, claims.ExpiresAt.After(time.Now()))
	})

	t.Run("empty user id", func(t *testing.T) {
		_, err := svc.GenerateToken("")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := svc.GenerateToken("user-1")
		require.NoError(t, err)

		_, err = middleware.NewJWTService("wrong-secret-key-minimum-32-characters-long").ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("subject only", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "user-2",
			Issuer:    middleware.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		claims, err := svc.ValidateToken(signed)
		require.NoError(t, err)
		assert.Equal(t, "user-2", claims.Owner())
	})

	t.Run("expired", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
			UserID: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    middleware.Issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)
		assert.Error(t, err)
	})
}

func TestJWTMiddleware(t *testing.T) {
	svc := middleware.NewJWTService(testSecret)
	var seen string
	h := middleware.JWTMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	token, err := svc.GenerateToken("user-1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, "user-1", seen)
			} else {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

// =============================================================================
// Rate limit
// =============================================================================

func TestRateLimiter_Allow(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 2)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 2, rl.Len())

	rl.Sweep()
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 1)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}

// =============================================================================
// Recovery
// =============================================================================

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
