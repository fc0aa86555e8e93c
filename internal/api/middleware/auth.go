package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mkierin/second-brain-web-interface/internal/auth"
	"github.com/mkierin/second-brain-web-interface/internal/models"
	"github.com/mkierin/second-brain-web-interface/internal/store"
)

type contextKey string

const UserContextKey contextKey = "user"

// AuthMiddleware handles bearer-token verification for authenticated endpoints.
type AuthMiddleware struct {
	users  store.DataStore
	tokens *auth.Tokens
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(users store.DataStore, tokens *auth.Tokens) *AuthMiddleware {
	return &AuthMiddleware{
		users:  users,
		tokens: tokens,
	}
}

// RequireAuth middleware verifies the JWT and loads the user into the request
// context. The token comes from the Authorization header, or from the "token"
// query parameter for EventSource clients that cannot set headers.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			jsonError(w, http.StatusUnauthorized, "missing credentials")
			return
		}

		username, err := m.tokens.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				jsonError(w, http.StatusUnauthorized, "token expired")
				return
			}
			jsonError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		user, err := m.users.GetUserByUsername(r.Context(), username)
		if err != nil {
			jsonError(w, http.StatusServiceUnavailable, "user lookup failed")
			return
		}
		if user == nil {
			jsonError(w, http.StatusUnauthorized, "unknown user")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
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
