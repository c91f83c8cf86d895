package auth

import (
	"context"
	"testing"

	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
	"github.com/ArkinSolomon/xpkg-core/pkg/xtoken"
)

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()

	if id := FromContext(ctx); id != nil {
		t.Fatalf("expected nil, got %+v", id)
	}

	identity := &Identity{
		UserID:            "user-123",
		TokenType:         xtoken.Identity,
		PermissionsNumber: scope.Encode(scope.RegistryUpload),
	}
	ctx = NewContext(ctx, identity)

	got := FromContext(ctx)
	if got == nil {
		t.Fatal("expected identity, got nil")
	}
	if got.UserID != "user-123" {
		t.Errorf("UserID = %q, want %q", got.UserID, "user-123")
	}
	if !scope.All(got.PermissionsNumber, scope.RegistryUpload) {
		t.Errorf("PermissionsNumber = %v, want RegistryUpload set", got.PermissionsNumber)
	}
}
