package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"linguaLinkAPI/internal/apperrors"
	"linguaLinkAPI/internal/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Token and input validation run before any database access, so these
// tests work against a service with no pool.

func TestGenerateAndValidateToken(t *testing.T) {
	s := NewAuthService(nil, "unit-test-secret")

	token, err := s.GenerateToken("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "f47ac10b-58cc-4372-a567-0e02b2c3d479", userID)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := NewAuthService(nil, "secret-one")
	verifier := NewAuthService(nil, "secret-two")

	token, err := issuer.GenerateToken("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestValidateToken_Garbage(t *testing.T) {
	s := NewAuthService(nil, "unit-test-secret")

	for _, tokenString := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		_, err := s.ValidateToken(tokenString)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	secret := "unit-test-secret"
	s := NewAuthService(nil, secret)

	claims := jwt.MapClaims{
		"sub": "f47ac10b-58cc-4372-a567-0e02b2c3d479",
		"iat": time.Now().Add(-8 * 24 * time.Hour).Unix(),
		"exp": time.Now().Add(-24 * time.Hour).Unix(),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = s.ValidateToken(expired)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestValidateToken_UnexpectedSigningMethod(t *testing.T) {
	s := NewAuthService(nil, "unit-test-secret")

	// alg=none tokens must never validate.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "f47ac10b-58cc-4372-a567-0e02b2c3d479",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.ValidateToken(unsigned)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestSignup_Validation(t *testing.T) {
	s := NewAuthService(nil, "unit-test-secret")
	ctx := context.Background()

	tests := []struct {
		name string
		req  user.SignupRequest
	}{
		{"missing fields", user.SignupRequest{Email: "a@b.com", Password: "secret123"}},
		{"short password", user.SignupRequest{FullName: "A", Email: "a@b.com", Password: "123"}},
		{"bad email", user.SignupRequest{FullName: "A", Email: "not-an-email", Password: "secret123"}},
		{"email with spaces", user.SignupRequest{FullName: "A", Email: "a b@c.com", Password: "secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Signup(ctx, &tt.req)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput), "expected ErrInvalidInput, got %v", err)
		})
	}
}

func TestLogin_MissingFields(t *testing.T) {
	s := NewAuthService(nil, "unit-test-secret")

	_, err := s.Login(context.Background(), &user.LoginRequest{Email: "a@b.com"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
