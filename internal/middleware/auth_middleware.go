package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopmate/shopmate/internal/models"
	"github.com/shopmate/shopmate/internal/service"
	"github.com/sirupsen/logrus"
)

// SessionVerifier checks a session token and returns its claims.
type SessionVerifier interface {
	VerifySession(tokenString string) (*service.SessionClaims, error)
}

// UserResolver loads the user record a session points at.
type UserResolver interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type AuthMiddleware struct {
	tokens SessionVerifier
	users  UserResolver
	logger *logrus.Logger
}

func NewAuthMiddleware(tokens SessionVerifier, users UserResolver, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

// RequireAuth validates the bearer token, resolves the user record and
// attaches it to the request context. A token for a deleted user is
// rejected the same as a bad token.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Please login")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Invalid authorization header format")
			return
		}

		claims, err := m.tokens.VerifySession(parts[1])
		if err != nil {
			m.logger.WithError(err).Debug("Session verification failed")
			m.respondError(w, http.StatusUnauthorized, "AUTH_INVALID", "Invalid or expired token")
			return
		}

		user, err := m.users.GetByID(r.Context(), claims.Subject)
		if err != nil {
			m.logger.WithError(err).Error("Failed to resolve session user")
			m.respondError(w, http.StatusUnauthorized, "AUTH_INVALID", "Invalid or expired token")
			return
		}
		if user == nil {
			m.respondError(w, http.StatusUnauthorized, "AUTH_INVALID", "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// RequireAdmin gates privileged routes. Must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			m.respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Please login")
			return
		}

		if !user.IsAdmin() {
			m.respondError(w, http.StatusForbidden, "FORBIDDEN", "You are not admin")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}
