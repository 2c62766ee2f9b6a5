package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"linguaLinkAPI/internal/db"
	"linguaLinkAPI/internal/user"
	"linguaLinkAPI/services"

	"github.com/jackc/pgx/v5/pgxpool"
)

const TestJWTSecret = "test-secret-key-for-testing-only"

// SetupTestDB connects to the test database and applies migrations.
// Tests are skipped when no database is configured.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL must be set")
	}

	ctx := context.Background()

	if err := db.RunMigrations(ctx, dbURL); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return pool
}

// CleanupTestDB removes data created by test accounts and closes the pool.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	statements := []string{
		`DELETE FROM friendships WHERE user_id IN (SELECT id FROM users WHERE email LIKE 'test%@example.com')
		 OR friend_id IN (SELECT id FROM users WHERE email LIKE 'test%@example.com')`,
		`DELETE FROM friend_requests WHERE sender_id IN (SELECT id FROM users WHERE email LIKE 'test%@example.com')
		 OR recipient_id IN (SELECT id FROM users WHERE email LIKE 'test%@example.com')`,
		`DELETE FROM users WHERE email LIKE 'test%@example.com'`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Logf("Warning: failed to cleanup test data: %v", err)
		}
	}
	pool.Close()
}

// CreateTestUser signs up a user with a unique test email. The name
// argument keeps emails distinct within one test.
func CreateTestUser(t *testing.T, authService *services.AuthService, name string) *user.User {
	t.Helper()

	email := fmt.Sprintf("test-%s-%d@example.com", name, time.Now().UnixNano())
	u, err := authService.Signup(context.Background(), &user.SignupRequest{
		FullName: name,
		Email:    email,
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Failed to create test user %s: %v", name, err)
	}

	return u
}

// OnboardTestUser completes onboarding so the user becomes visible in
// recommendations.
func OnboardTestUser(t *testing.T, userService *services.UserService, userID string) *user.User {
	t.Helper()

	u, err := userService.CompleteOnboarding(context.Background(), userID, &user.OnboardingRequest{
		FullName:         "Test User",
		Bio:              "Learning languages",
		NativeLanguage:   "english",
		LearningLanguage: "spanish",
		Location:         "Berlin, Germany",
	})
	if err != nil {
		t.Fatalf("Failed to onboard test user: %v", err)
	}

	return u
}
