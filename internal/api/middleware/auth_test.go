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

	"github.com/privacyguard/privacyguard/internal/api/middleware"
	"github.com/privacyguard/privacyguard/internal/auth"
)

const (
	testSigningKey = "test-secret-key-for-testing-only"
	testIssuer     = "https://api.privacyguard.dev"
	testAudience   = "privacyguard-api"
)

// tokenValidator adapts the JWT service to the middleware's validator.
type tokenValidator struct {
	jwt *auth.JWTService
}

func (v tokenValidator) ValidateAccessToken(token string) (string, error) {
	claims, err := v.jwt.ValidateAccessToken(token)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

func newJWTService(expiry time.Duration) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: testSigningKey,
		Issuer:     testIssuer,
		Audience:   testAudience,
		Expiry:     expiry,
	})
}

// signExpiredToken signs a token that expired a minute ago with the test key,
// issuer and audience, so only its expiry makes it invalid.
func signExpiredToken(t *testing.T, sessionID string) string {
	t.Helper()
	issuedAt := time.Now().Add(-time.Hour)
	claims := auth.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		SessionID: sessionID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return signed
}

func newAuthHandler(t *testing.T, captured *string) http.Handler {
	t.Helper()
	validator := tokenValidator{jwt: newJWTService(time.Hour)}
	return middleware.Auth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = middleware.GetSessionID(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuth_MissingAuthorizationHeader(t *testing.T) {
	handler := newAuthHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	assert.Contains(t, rec.Body.String(), "missing authorization header")
}

func TestAuth_InvalidAuthorizationFormat(t *testing.T) {
	handler := newAuthHandler(t, nil)

	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "token123"},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"bearer lowercase no space", "bearertoken123"},
		{"empty bearer", "Bearer "},
		{"just bearer", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	handler := newAuthHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer invalid.jwt.token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid access token")
}

func TestAuth_ExpiredToken(t *testing.T) {
	handler := newAuthHandler(t, nil)

	token := signExpiredToken(t, "ses_expired")

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "access token has expired")
}

func TestAuth_ValidToken(t *testing.T) {
	var captured string
	handler := middleware.RequestID(newAuthHandler(t, &captured))

	token, _, err := newJWTService(time.Hour).GenerateAccessToken("ses_0123456789abcdef")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ses_0123456789abcdef", captured)
}

func TestAuth_CaseInsensitiveBearer(t *testing.T) {
	handler := newAuthHandler(t, nil)

	token, _, err := newJWTService(time.Hour).GenerateAccessToken("ses_case")
	require.NoError(t, err)

	for _, prefix := range []string{"Bearer ", "bearer ", "BEARER "} {
		t.Run(prefix, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			req.Header.Set("Authorization", prefix+token)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestAuth_ProblemCarriesRequestID(t *testing.T) {
	handler := middleware.RequestID(newAuthHandler(t, nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/simulator", http.NoBody)
	req.Header.Set("X-Request-Id", "req_fixed")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "req_fixed", body["traceId"])
	assert.Equal(t, "/v1/simulator", body["instance"])
}

func TestGetSessionID_NoAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	assert.Empty(t, middleware.GetSessionID(req.Context()))
}
