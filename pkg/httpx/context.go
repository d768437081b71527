package httpx

import (
	"context"

	"github.com/lanternworks/gatehouse/pkg/jwtx"
)

type claimsCtxKey struct{}

// WithClaims stores verified token claims in the context.
func WithClaims(ctx context.Context, claims jwtx.Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

// ClaimsFromContext returns the claims set by AuthnMiddleware.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(jwtx.Claims)
	return claims, ok
}
