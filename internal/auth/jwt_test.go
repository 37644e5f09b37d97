package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privacyguard/privacyguard/internal/auth"
)

const (
	testSigningKey = "test-secret-key-for-testing-only"
	testIssuer     = "https://api.privacyguard.test"
	testAudience   = "privacyguard-simulator"
)

func newJWTService(key, issuer, audience string) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: key,
		Issuer:     issuer,
		Audience:   audience,
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newJWTService(testSigningKey, testIssuer, testAudience)

	token, expiresAt, err := svc.GenerateAccessToken("ses_abc")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(auth.AccessTokenExpiry), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ses_abc", claims.SessionID)
	assert.Equal(t, "ses_abc", claims.Subject)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newJWTService(testSigningKey, testIssuer, testAudience)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_Mismatches(t *testing.T) {
	issuing := newJWTService(testSigningKey, testIssuer, testAudience)
	token, _, err := issuing.GenerateAccessToken("ses_abc")
	require.NoError(t, err)

	tests := []struct {
		name      string
		validator *auth.JWTService
	}{
		{"wrong signing key", newJWTService("another-key", testIssuer, testAudience)},
		{"wrong issuer", newJWTService(testSigningKey, "https://elsewhere.test", testAudience)},
		{"wrong audience", newJWTService(testSigningKey, testIssuer, "other-api")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.validator.ValidateAccessToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_Expired(t *testing.T) {
	svc := newJWTService(testSigningKey, testIssuer, testAudience)

	past := time.Now().Add(-2 * time.Hour)
	claims := auth.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
		SessionID: "ses_abc",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}

func TestJWTService_RejectsOtherAlgorithms(t *testing.T) {
	svc := newJWTService(testSigningKey, testIssuer, testAudience)

	claims := auth.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		SessionID: "ses_abc",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_RequiresSessionID(t *testing.T) {
	svc := newJWTService(testSigningKey, testIssuer, testAudience)

	token, _, err := svc.GenerateAccessToken("")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}
