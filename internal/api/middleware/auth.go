package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Eyoab11/kuriftu/internal/models"
	"github.com/Eyoab11/kuriftu/internal/store"
)

type contextKey string

const UserContextKey contextKey = "user"

// AuthMiddleware resolves bearer tokens to user accounts.
type AuthMiddleware struct {
	tokens store.TokenStore
	users  store.DataStore
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(tokens store.TokenStore, users store.DataStore) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// RequireAuth verifies the Authorization bearer token and loads the user
// into the request context. Missing or unknown tokens get 401; the login
// redirect itself is the caller's job.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			jsonError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		userID, err := m.tokens.GetSession(r.Context(), token)
		if err != nil {
			jsonError(w, http.StatusServiceUnavailable, "session lookup failed")
			return
		}
		if userID == uuid.Nil {
			jsonError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user, err := m.users.GetUserByID(r.Context(), userID)
		if err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database error")
			return
		}
		if user == nil {
			jsonError(w, http.StatusUnauthorized, "account no longer exists")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects non-admin accounts. Must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			jsonError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !user.IsAdmin {
			jsonError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetUserFromContext retrieves the authenticated user from the request context.
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
