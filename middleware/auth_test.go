package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"linguaLinkAPI/services"

	"github.com/stretchr/testify/assert"
)

// Cookie and signature checks happen before any user lookup, so a
// service without a pool is enough here.

func TestAuthMiddleware_NoCookie(t *testing.T) {
	authService := services.NewAuthService(nil, "unit-test-secret")

	nextCalled := false
	handler := AuthMiddleware(authService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users/friends", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, nextCalled, "handler must not run without a session cookie")
	assert.Contains(t, rr.Body.String(), "No token provided")
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	authService := services.NewAuthService(nil, "unit-test-secret")

	nextCalled := false
	handler := AuthMiddleware(authService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users/friends", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tampered.token.value"})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, nextCalled)
	assert.Contains(t, rr.Body.String(), "Invalid token")
}

func TestAuthMiddleware_TokenFromDifferentSecret(t *testing.T) {
	issuer := services.NewAuthService(nil, "other-secret")
	authService := services.NewAuthService(nil, "unit-test-secret")

	token, err := issuer.GenerateToken("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	assert.NoError(t, err)

	handler := AuthMiddleware(authService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a foreign token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
