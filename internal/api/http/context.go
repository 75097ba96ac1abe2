package http

import (
	"context"

	"reviewhub-backend/internal/security"
)

type ctxKey struct{}

func withClaims(ctx context.Context, claims *security.UserClaims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

// ClaimsFromContext returns the authenticated caller, if any.
func ClaimsFromContext(ctx context.Context) (*security.UserClaims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*security.UserClaims)
	return claims, ok && claims != nil
}
