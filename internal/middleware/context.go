package middleware

import (
	"context"

	"github.com/shopmate/shopmate/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// ContextWithUser attaches the resolved user record to the context.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the user attached by RequireAuth.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok
}
