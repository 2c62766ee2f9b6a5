package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"linguaLinkAPI/internal/apperrors"
	"linguaLinkAPI/internal/user"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

// CompleteOnboarding fills in the profile and flips the onboarding flag.
// All five profile fields are required; a user only becomes visible in
// recommendations once this succeeds.
func (s *UserService) CompleteOnboarding(ctx context.Context, userID string, req *user.OnboardingRequest) (*user.User, error) {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"fullName", req.FullName},
		{"bio", req.Bio},
		{"nativeLanguage", req.NativeLanguage},
		{"learningLanguage", req.LearningLanguage},
		{"location", req.Location},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: all fields are required, missing: %s",
			apperrors.ErrInvalidInput, strings.Join(missing, ", "))
	}

	query := `
	UPDATE users
	SET full_name = $2,
	    bio = $3,
	    native_language = $4,
	    learning_language = $5,
	    location = $6,
	    profile_pic = COALESCE(NULLIF($7, ''), profile_pic),
	    is_onboarded = true,
	    updated_at = now()
	WHERE id = $1
	RETURNING ` + userColumns

	u := &user.User{}
	err := s.db.QueryRow(ctx, query,
		userID, req.FullName, req.Bio, req.NativeLanguage, req.LearningLanguage,
		req.Location, req.ProfilePic,
	).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Bio, &u.ProfilePic,
		&u.NativeLanguage, &u.LearningLanguage, &u.Location, &u.IsOnboarded,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user not found", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to complete onboarding: %w", err)
	}

	log.Printf("CompleteOnboarding: user %s is now onboarded", userID)
	return u, nil
}

// UpdateProfile applies a partial profile edit. Empty fields keep their
// current values; the onboarding flag is never cleared here.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users
	SET full_name = COALESCE(NULLIF($2, ''), full_name),
	    bio = COALESCE(NULLIF($3, ''), bio),
	    native_language = COALESCE(NULLIF($4, ''), native_language),
	    learning_language = COALESCE(NULLIF($5, ''), learning_language),
	    location = COALESCE(NULLIF($6, ''), location),
	    profile_pic = COALESCE(NULLIF($7, ''), profile_pic),
	    updated_at = now()
	WHERE id = $1
	RETURNING ` + userColumns

	u := &user.User{}
	err := s.db.QueryRow(ctx, query,
		userID, req.FullName, req.Bio, req.NativeLanguage, req.LearningLanguage,
		req.Location, req.ProfilePic,
	).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Bio, &u.ProfilePic,
		&u.NativeLanguage, &u.LearningLanguage, &u.Location, &u.IsOnboarded,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user not found", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return u, nil
}

// GetRecommendations returns the candidate pool for the user: everyone
// who finished onboarding, minus the user and their existing friends.
// Ordered by account creation so the listing is stable between calls.
func (s *UserService) GetRecommendations(ctx context.Context, userID string) ([]*user.Summary, error) {
	query := `
	SELECT u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language, u.location
	FROM users u
	WHERE u.id != $1
	  AND u.is_onboarded = true
	  AND NOT EXISTS (
	      SELECT 1 FROM friendships f
	      WHERE f.user_id = $1 AND f.friend_id = u.id
	  )
	ORDER BY u.created_at, u.id
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recommended users: %w", err)
	}
	defer rows.Close()

	recommended := []*user.Summary{}
	for rows.Next() {
		u := &user.Summary{}
		if err := rows.Scan(&u.ID, &u.FullName, &u.ProfilePic, &u.NativeLanguage,
			&u.LearningLanguage, &u.Location); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		recommended = append(recommended, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recommended, nil
}

// GetFriends resolves the user's friendships to public profiles, oldest
// friendship first. A friendship row pointing at a missing user is
// skipped by the join rather than failing the whole listing.
func (s *UserService) GetFriends(ctx context.Context, userID string) ([]*user.Summary, error) {
	query := `
	SELECT u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language, u.location
	FROM friendships f
	INNER JOIN users u ON u.id = f.friend_id
	WHERE f.user_id = $1
	ORDER BY f.created_at, u.id
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friends: %w", err)
	}
	defer rows.Close()

	friends := []*user.Summary{}
	for rows.Next() {
		u := &user.Summary{}
		if err := rows.Scan(&u.ID, &u.FullName, &u.ProfilePic, &u.NativeLanguage,
			&u.LearningLanguage, &u.Location); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return friends, nil
}
