// Package auth authenticates HTTP requests against the opaque bearer token
// format (pkg/xtoken) and enforces scope requirements (pkg/scope).
package auth

import (
	"context"

	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
	"github.com/ArkinSolomon/xpkg-core/pkg/xtoken"
)

// Identity is the authenticated caller resolved from a validated token.
type Identity struct {
	UserID            string
	ClientID          *string
	TokenType         xtoken.Type
	PermissionsNumber scope.Number
}

type ctxKey struct{}

// NewContext stores id in ctx.
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the Identity stored by Middleware, or nil if the
// request was not authenticated.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
