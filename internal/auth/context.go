// ABOUTME: Request context plumbing for the authenticated user
// ABOUTME: Provides WithUser/UserFromContext used by middleware and handlers

package auth

import (
	"context"

	"github.com/lugha/lugha-gateway/internal/store"
)

// userContextKey is the key type for storing the user in context.Context.
type userContextKey struct{}

// WithUser returns a new context with the authenticated user attached.
func WithUser(ctx context.Context, user *store.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the authenticated user, or nil if the request
// was not authenticated.
func UserFromContext(ctx context.Context) *store.User {
	user, ok := ctx.Value(userContextKey{}).(*store.User)
	if !ok {
		return nil
	}
	return user
}
