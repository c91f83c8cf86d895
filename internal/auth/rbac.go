package auth

import (
	"log/slog"
	"net/http"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

// RequireAuth rejects requests that have no authenticated identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			apperrors.Write(w, slog.Default(), &apperrors.ClientError{Code: apperrors.CodeUnauthorized, Message: "authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireScopes returns middleware that rejects requests whose identity does
// not hold every one of the given scopes in its permissions number.
func RequireScopes(scopes ...scope.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if id == nil {
				apperrors.Write(w, slog.Default(), &apperrors.ClientError{Code: apperrors.CodeUnauthorized, Message: "authentication required"})
				return
			}
			if !scope.All(id.PermissionsNumber, scopes...) {
				apperrors.Write(w, slog.Default(), &apperrors.ClientError{Code: apperrors.CodeForbidden, Message: "insufficient permissions"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyScope returns middleware that rejects requests whose identity
// holds none of the given scopes.
func RequireAnyScope(scopes ...scope.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if id == nil {
				apperrors.Write(w, slog.Default(), &apperrors.ClientError{Code: apperrors.CodeUnauthorized, Message: "authentication required"})
				return
			}
			if !scope.Any(id.PermissionsNumber, scopes...) {
				apperrors.Write(w, slog.Default(), &apperrors.ClientError{Code: apperrors.CodeForbidden, Message: "insufficient permissions"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
