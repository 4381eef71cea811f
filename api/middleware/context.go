package middleware

import (
	"context"

	"github.com/angelmondragon/scanpay-backend/internal/cart"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxRole      contextKey = "actor_role"
	ctxCartOwner contextKey = "cart_owner"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// CartOwnerFromContext returns the owner resolved by CartOwner.
func CartOwnerFromContext(ctx context.Context) (cart.Owner, bool) {
	if ctx == nil {
		return cart.Owner{}, false
	}
	owner, ok := ctx.Value(ctxCartOwner).(cart.Owner)
	return owner, ok
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithCartOwner injects a resolved cart owner; handlers under test use it directly.
func WithCartOwner(ctx context.Context, owner cart.Owner) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartOwner, owner)
}
