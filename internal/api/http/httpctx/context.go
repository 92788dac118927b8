// Package httpctx carries the authenticated principal through request
// contexts.
package httpctx

import (
	"context"

	"github.com/ndanilin/linkpage-server/internal/model"
)

type contextKey struct{}

var principalKey contextKey

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, principal model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFrom retrieves the authenticated principal, if any.
func PrincipalFrom(ctx context.Context) (model.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(model.Principal)
	return principal, ok
}
