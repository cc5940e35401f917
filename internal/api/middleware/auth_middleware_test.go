package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

// echoUserID はコンテキストのユーザーIDをそのまま返すハンドラーです。
var echoUserID = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	w.Write([]byte(userID))
})

func TestAuthMiddleware(t *testing.T) {
	valid := signToken(t, testSecret, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantUser   string
	}{
		{name: "bearer header", header: "Bearer " + valid, wantStatus: http.StatusOK, wantUser: "user-1"},
		{name: "token query", query: "?token=" + valid, wantStatus: http.StatusOK, wantUser: "user-1"},
		{name: "missing token", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": "user-1"}), wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()}), wantStatus: http.StatusUnauthorized},
		{name: "missing sub", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"name": "alice"}), wantStatus: http.StatusUnauthorized},
	}

	handler := NewAuthenticator(testSecret, false).Middleware(echoUserID)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/protected/scores"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantUser, rec.Body.String())
				return
			}
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestAuthMiddleware_RejectsNonHMAC(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewAuthenticator(testSecret, false).ParseUserID(token)
	assert.Error(t, err)
}

func TestAuthMiddleware_MissingSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{"sub": "user-1"}))
	rec := httptest.NewRecorder()

	NewAuthenticator("", false).Middleware(echoUserID).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthMiddleware_Bypass(t *testing.T) {
	handler := NewAuthenticator("", true).Middleware(echoUserID)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, first.Code)
	_, err := uuid.Parse(first.Body.String())
	assert.NoError(t, err)
	assert.NotEqual(t, first.Body.String(), second.Body.String(), "each request is a different test user")
}
