package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"linguaLinkAPI/internal/user"
	"linguaLinkAPI/services"
)

type contextKey string

const UserKey contextKey = "user"

// SessionCookieName carries the signed session token. HTTP-only so the
// client-side app never reads it directly.
const SessionCookieName = "jwt"

// AuthMiddleware validates the session cookie, resolves it to a user and
// injects the user into the request context. It gates every protected
// route and performs no writes.
func AuthMiddleware(authService *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized - No token provided")
				return
			}

			userID, err := authService.ValidateToken(cookie.Value)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized - Invalid token")
				return
			}

			u, err := authService.GetUserByID(r.Context(), userID)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized - User not found")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser extracts the authenticated user from context.
func GetUser(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(UserKey).(*user.User)
	return u, ok
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
