package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linguaLinkAPI/handlers"
	"linguaLinkAPI/internal/apperrors"
	"linguaLinkAPI/internal/user"
	"linguaLinkAPI/middleware"
	"linguaLinkAPI/services"
	"linguaLinkAPI/tests/helpers"
)

func TestSignup_CreatesUserAndSetsCookie(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	authService := services.NewAuthService(pool, helpers.TestJWTSecret)
	userService := services.NewUserService(pool)
	authHandler := handlers.NewAuthHandler(authService, userService)

	body := `{"fullName": "Test Signup", "email": "test-signup@example.com", "password": "secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	authHandler.Signup(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var response struct {
		Success bool      `json:"success"`
		User    user.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "Test Signup", response.User.FullName)
	assert.Equal(t, "test-signup@example.com", response.User.Email)
	assert.False(t, response.User.IsOnboarded)
	assert.Contains(t, response.User.ProfilePic, "/avatars/")

	// The credential hash must never reach the client.
	assert.NotContains(t, rr.Body.String(), "password")

	var sessionCookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie, "signup must set the session cookie")
	assert.True(t, sessionCookie.HttpOnly)

	userID, err := authService.ValidateToken(sessionCookie.Value)
	require.NoError(t, err)
	assert.Equal(t, response.User.ID, userID)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	authService := services.NewAuthService(pool, helpers.TestJWTSecret)
	ctx := context.Background()

	first := &user.SignupRequest{FullName: "First", Email: "test-dup@example.com", Password: "secret123"}
	_, err := authService.Signup(ctx, first)
	require.NoError(t, err)

	second := &user.SignupRequest{FullName: "Second", Email: "test-dup@example.com", Password: "secret456"}
	_, err = authService.Signup(ctx, second)
	assert.True(t, errors.Is(err, apperrors.ErrConflict), "expected ErrConflict, got %v", err)
}

func TestLogin_WrongPassword(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	authService := services.NewAuthService(pool, helpers.TestJWTSecret)
	ctx := context.Background()

	created, err := authService.Signup(ctx, &user.SignupRequest{
		FullName: "Login Test", Email: "test-login@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = authService.Login(ctx, &user.LoginRequest{Email: created.Email, Password: "wrongpass"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = authService.Login(ctx, &user.LoginRequest{Email: "test-nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	logged, err := authService.Login(ctx, &user.LoginRequest{Email: created.Email, Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, logged.ID)
}

func TestProtectedRoute_Unauthenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	authService := services.NewAuthService(pool, helpers.TestJWTSecret)
	userService := services.NewUserService(pool)
	friendService := services.NewFriendService(pool)
	userHandler := handlers.NewUserHandler(userService, friendService)

	handler := middleware.AuthMiddleware(authService)(http.HandlerFunc(userHandler.GetMyFriends))

	req := httptest.NewRequest(http.MethodGet, "/api/users/friends", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.NotEmpty(t, response["message"])
}

func TestAuthMiddleware_ResolvesUser(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	authService := services.NewAuthService(pool, helpers.TestJWTSecret)
	userService := services.NewUserService(pool)
	authHandler := handlers.NewAuthHandler(authService, userService)

	created := helpers.CreateTestUser(t, authService, "me")
	token, err := authService.GenerateToken(created.ID)
	require.NoError(t, err)

	handler := middleware.AuthMiddleware(authService)(http.HandlerFunc(authHandler.Me))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		User user.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, created.ID, response.User.ID)
}

func TestOnboarding_RequiresAllFields(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	authService := services.NewAuthService(pool, helpers.TestJWTSecret)
	userService := services.NewUserService(pool)
	ctx := context.Background()

	created := helpers.CreateTestUser(t, authService, "onboard")

	_, err := userService.CompleteOnboarding(ctx, created.ID, &user.OnboardingRequest{
		FullName: "Partial",
		Bio:      "bio",
	})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput), "expected ErrInvalidInput, got %v", err)

	// Still not onboarded after the failed attempt.
	fetched, err := authService.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, fetched.IsOnboarded)

	onboarded := helpers.OnboardTestUser(t, userService, created.ID)
	assert.True(t, onboarded.IsOnboarded)
}
