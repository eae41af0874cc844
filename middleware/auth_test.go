package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/ranking-system/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func protected(roles ...string) (http.Handler, *struct {
	userID string
	role   models.UserRole
}) {
	seen := &struct {
		userID string
		role   models.UserRole
	}{}
	auth := NewAuthenticator(testSecret, slog.New(slog.NewTextHandler(io.Discard, nil)))
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.userID, _ = GetUserIDFromContext(r.Context())
		seen.role, _ = GetUserRoleFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	return auth.Authenticate(Authorize(roles...)(final)), seen
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	valid := jwt.MapClaims{"user_id": "u-1", "role": "admin", "exp": time.Now().Add(time.Hour).Unix()}

	tests := []struct {
		name   string
		header func(t *testing.T) string
		want   int
	}{
		{"admin token", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), valid)
		}, http.StatusNoContent},
		{"missing header", func(*testing.T) string { return "" }, http.StatusUnauthorized},
		{"wrong scheme", func(t *testing.T) string {
			return "Basic " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), valid)
		}, http.StatusUnauthorized},
		{"wrong secret", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), valid)
		}, http.StatusUnauthorized},
		{"expired", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret),
				jwt.MapClaims{"user_id": "u-1", "role": "admin", "exp": time.Now().Add(-time.Minute).Unix()})
		}, http.StatusUnauthorized},
		{"player role", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret),
				jwt.MapClaims{"user_id": "u-2", "role": "player"})
		}, http.StatusForbidden},
		{"unknown role", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret),
				jwt.MapClaims{"user_id": "u-2", "role": "organizer"})
		}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := protected(string(models.RoleAdmin))
			req := httptest.NewRequest(http.MethodPost, "/tournaments/t-1/rankings", nil)
			if h := tt.header(t); h != "" {
				req.Header.Set("Authorization", h)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthenticate_ExposesClaims(t *testing.T) {
	handler, seen := protected(string(models.RoleAdmin), string(models.RolePlayer))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, []byte(testSecret),
		jwt.MapClaims{"user_id": float64(42), "role": "player"}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "42", seen.userID)
	assert.Equal(t, models.RolePlayer, seen.role)
}

func TestAuthenticate_RejectsNoneAlgorithm(t *testing.T) {
	handler, _ := protected(string(models.RoleAdmin))
	token := signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"user_id": "u-1", "role": "admin"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
