package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ccpp/planner-service/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, subject string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}

	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = r.Context().Value(UserIDKey).(string)
		w.WriteHeader(http.StatusOK)
	})
	protected := AuthMiddleware(cfg)(next)

	t.Run("passes a valid bearer token through", func(t *testing.T) {
		gotUserID = ""
		req := httptest.NewRequest("GET", "/cards", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", "user-123", time.Hour))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-123", gotUserID)
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/cards", nil)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
	})

	t.Run("rejects a token signed with the wrong secret", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/cards", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", "user-123", time.Hour))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/cards", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", "user-123", -time.Hour))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a token without a subject", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/cards", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", "", time.Hour))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
