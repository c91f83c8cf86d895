package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/pkg/xtoken"
)

// Middleware returns HTTP middleware that authenticates the caller via an
// xpkg_ bearer token and stores the resulting Identity in the request
// context. Requests without a valid token are rejected with 401.
func Middleware(repo xtoken.Repository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticate(r, repo)
			if err != nil {
				logger.Debug("token validation failed", "error", err)
				apperrors.Write(w, logger, err)
				return
			}

			ctx := NewContext(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalMiddleware behaves like Middleware but lets a request through with
// no Identity in context when no Authorization header is presented at all; a
// header that IS present but invalid is still rejected. Endpoints that serve
// public catalog data but personalize responses for authenticated callers
// use this instead of Middleware.
func OptionalMiddleware(repo xtoken.Repository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			Middleware(repo, logger)(next).ServeHTTP(w, r)
		})
	}
}

func authenticate(r *http.Request, repo xtoken.Repository) (*Identity, error) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") && !strings.HasPrefix(authHeader, "bearer ") {
		return nil, &apperrors.ClientError{Code: apperrors.CodeUnauthorized, Message: "missing bearer token"}
	}
	raw := strings.TrimSpace(authHeader[len("Bearer "):])

	token, err := xtoken.Validate(r.Context(), repo, raw)
	if err != nil {
		return nil, err
	}

	return &Identity{
		UserID:            token.UserID,
		ClientID:          token.ClientID,
		TokenType:         token.TokenType,
		PermissionsNumber: token.PermissionsNumber,
	}, nil
}
