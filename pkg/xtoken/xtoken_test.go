package xtoken

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

type fakeRepository struct {
	rows map[string]Token
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{rows: make(map[string]Token)}
}

func (f *fakeRepository) Create(ctx context.Context, t Token) error {
	f.rows[t.ID] = t
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id string) (Token, error) {
	t, ok := f.rows[id]
	if !ok {
		return Token{}, errors.New("not found")
	}
	return t, nil
}

func TestIssueThenValidate(t *testing.T) {
	repo := newFakeRepository()
	perms := scope.Encode(scope.RegistryUpload)

	external, err := Issue(context.Background(), repo, "user-1", nil, Registry, perms, time.Hour, nil)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	row, err := Validate(context.Background(), repo, external)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if row.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", row.UserID, "user-1")
	}
	if row.PermissionsNumber != perms {
		t.Errorf("PermissionsNumber = %v, want %v", row.PermissionsNumber, perms)
	}
}

func TestExternalShape(t *testing.T) {
	repo := newFakeRepository()
	external, err := Issue(context.Background(), repo, "user-1", nil, Identity, 0, time.Hour, nil)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if len(external) < minTotalLen {
		t.Fatalf("external token length = %d, want >= %d", len(external), minTotalLen)
	}
	if external[:len(prefix)] != prefix {
		t.Errorf("external token missing prefix %q", prefix)
	}
}

func TestValidateRejectsTamperedSecret(t *testing.T) {
	repo := newFakeRepository()
	external, err := Issue(context.Background(), repo, "user-1", nil, Registry, 0, time.Hour, nil)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	tampered := external[:len(external)-1] + "!"
	if _, err := Validate(context.Background(), repo, tampered); err == nil {
		t.Error("Validate should reject a token with a malformed trailing expiry digit")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	repo := newFakeRepository()
	external, err := Issue(context.Background(), repo, "user-1", nil, Registry, 0, -time.Hour, nil)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := Validate(context.Background(), repo, external); err == nil {
		t.Error("Validate should reject an already-expired token")
	}
}

func TestValidateRejectsUnknownTokenID(t *testing.T) {
	repo := newFakeRepository()
	external, err := Issue(context.Background(), repo, "user-1", nil, Registry, 0, time.Hour, nil)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// Swap in a different id (still 32 chars) so the lookup misses.
	replaced := external[:len(prefix)] + "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA" + external[len(prefix)+idLen:]
	if _, err := Validate(context.Background(), repo, replaced); err == nil {
		t.Error("Validate should reject a token id with no matching row")
	}
}

func TestValidateRejectsShortToken(t *testing.T) {
	repo := newFakeRepository()
	if _, err := Validate(context.Background(), repo, "xpkg_tooshort"); err == nil {
		t.Error("Validate should reject a token shorter than the minimum length")
	}
}

func TestValidateRejectsMissingPrefix(t *testing.T) {
	repo := newFakeRepository()
	external, err := Issue(context.Background(), repo, "user-1", nil, Registry, 0, time.Hour, nil)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	wrongPrefix := "notxp" + external[len(prefix):]
	if _, err := Validate(context.Background(), repo, wrongPrefix); err == nil {
		t.Error("Validate should reject a token without the xpkg_ prefix")
	}
}

func TestTTLKnownTypes(t *testing.T) {
	if d, ok := TTL(Identity); !ok || d != 30*time.Minute {
		t.Errorf("TTL(Identity) = %v, %v, want 30m, true", d, ok)
	}
	if d, ok := TTL(Action); !ok || d != 24*time.Hour {
		t.Errorf("TTL(Action) = %v, %v, want 24h, true", d, ok)
	}
	if _, ok := TTL(OAuth); ok {
		t.Error("TTL(OAuth) should report no fixed TTL; it comes from the code exchange")
	}
}
