package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerifyValidToken(t *testing.T) {
	v := NewVerifier("s3cret")
	token := signToken(t, "s3cret", Claims{
		UserID: 7,
		Role:   "counselor",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	identity, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 7, identity.UserID)
	assert.Equal(t, "counselor", identity.Role)
}

func TestVerifyExpiredToken(t *testing.T) {
	v := NewVerifier("s3cret")
	token := signToken(t, "s3cret", Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	_, err := v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	v := NewVerifier("s3cret")
	token := signToken(t, "other", Claims{UserID: 7})

	_, err := v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMissingUserID(t *testing.T) {
	v := NewVerifier("s3cret")
	token := signToken(t, "s3cret", Claims{Role: "user"})

	_, err := v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyEmptyToken(t *testing.T) {
	v := NewVerifier("s3cret")
	_, err := v.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/ws?token=query456", nil)
	assert.Equal(t, "query456", TokenFromRequest(r))

	// Header wins over the query parameter.
	r = httptest.NewRequest("GET", "/ws?token=query456", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/ws", nil)
	assert.Empty(t, TokenFromRequest(r))
}
