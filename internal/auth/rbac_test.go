package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

func TestRequireAuth(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("rejects unauthenticated", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		RequireAuth(okHandler).ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("passes authenticated", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := NewContext(r.Context(), &Identity{UserID: "user", PermissionsNumber: scope.Encode(scope.Identity)})
		r = r.WithContext(ctx)
		w := httptest.NewRecorder()

		RequireAuth(okHandler).ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
		}
	})
}

func TestRequireScopes(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RequireScopes(scope.RegistryUpload, scope.RegistryManagePackages)

	tests := []struct {
		name     string
		perms    scope.Number
		wantCode int
	}{
		{"has both", scope.Encode(scope.RegistryUpload, scope.RegistryManagePackages), http.StatusOK},
		{"has both plus extra", scope.Encode(scope.RegistryUpload, scope.RegistryManagePackages, scope.Identity), http.StatusOK},
		{"missing one", scope.Encode(scope.RegistryUpload), http.StatusForbidden},
		{"has neither", scope.Encode(scope.Identity), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			ctx := NewContext(r.Context(), &Identity{UserID: "u", PermissionsNumber: tt.perms})
			r = r.WithContext(ctx)
			w := httptest.NewRecorder()

			mw(okHandler).ServeHTTP(w, r)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestRequireAnyScope(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RequireAnyScope(scope.RegistryUpload, scope.RegistryManagePackages)

	tests := []struct {
		name     string
		perms    scope.Number
		wantCode int
	}{
		{"has one", scope.Encode(scope.RegistryUpload), http.StatusOK},
		{"has other", scope.Encode(scope.RegistryManagePackages), http.StatusOK},
		{"has neither", scope.Encode(scope.Identity), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			ctx := NewContext(r.Context(), &Identity{UserID: "u", PermissionsNumber: tt.perms})
			r = r.WithContext(ctx)
			w := httptest.NewRecorder()

			mw(okHandler).ServeHTTP(w, r)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestRequireScopes_NoIdentity(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RequireScopes(scope.RegistryUpload)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	mw(okHandler).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
