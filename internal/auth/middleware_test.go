package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
	"github.com/ArkinSolomon/xpkg-core/pkg/xtoken"
)

type fakeTokenRepository struct {
	rows map[string]xtoken.Token
}

func newFakeTokenRepository() *fakeTokenRepository {
	return &fakeTokenRepository{rows: make(map[string]xtoken.Token)}
}

func (f *fakeTokenRepository) Create(ctx context.Context, t xtoken.Token) error {
	f.rows[t.ID] = t
	return nil
}

func (f *fakeTokenRepository) GetByID(ctx context.Context, id string) (xtoken.Token, error) {
	t, ok := f.rows[id]
	if !ok {
		return xtoken.Token{}, errors.New("not found")
	}
	return t, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestMiddleware_NoAuth(t *testing.T) {
	mw := Middleware(newFakeTokenRepository(), testLogger())

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["error"] == "" {
		t.Error("expected a non-empty error code")
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	repo := newFakeTokenRepository()
	perms := scope.Encode(scope.RegistryUpload)
	external, err := xtoken.Issue(context.Background(), repo, "user-1", nil, xtoken.Registry, perms, time.Hour, nil)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	mw := Middleware(repo, testLogger())

	var gotIdentity *Identity
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+external)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotIdentity == nil {
		t.Fatal("expected identity in context")
	}
	if gotIdentity.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", gotIdentity.UserID, "user-1")
	}
	if !scope.All(gotIdentity.PermissionsNumber, scope.RegistryUpload) {
		t.Errorf("PermissionsNumber missing RegistryUpload")
	}
}

func TestMiddleware_MalformedBearer(t *testing.T) {
	mw := Middleware(newFakeTokenRepository(), testLogger())

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer not-a-real-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestOptionalMiddleware_NoHeaderPassesThrough(t *testing.T) {
	mw := OptionalMiddleware(newFakeTokenRepository(), testLogger())

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if FromContext(r.Context()) != nil {
			t.Error("expected no identity in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if !called {
		t.Fatal("expected handler to run")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestOptionalMiddleware_InvalidHeaderRejected(t *testing.T) {
	mw := OptionalMiddleware(newFakeTokenRepository(), testLogger())

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
