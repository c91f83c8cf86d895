package oauthclient

import (
	"strings"
	"testing"

	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

func TestNewClientIDShape(t *testing.T) {
	id, err := NewClientID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(id, clientIDPrefix) {
		t.Errorf("id %q missing prefix %q", id, clientIDPrefix)
	}
	if len(id) != len(clientIDPrefix)+clientIDDigits {
		t.Errorf("id length = %d, want %d", len(id), len(clientIDPrefix)+clientIDDigits)
	}
}

func TestNewClientSecretShape(t *testing.T) {
	secret, err := NewClientSecret()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(secret, clientSecretPrefix) {
		t.Errorf("secret missing prefix %q", clientSecretPrefix)
	}
	if len(secret) != len(clientSecretPrefix)+clientSecretLen {
		t.Errorf("secret length = %d, want %d", len(secret), len(clientSecretPrefix)+clientSecretLen)
	}
}

func TestIsReservedID(t *testing.T) {
	if !IsReservedID("xpkg_dp_something") {
		t.Error("xpkg_dp_ prefix should be reserved")
	}
	if IsReservedID("xpkg_id_123") {
		t.Error("a generated client id should not itself be reserved")
	}
}

func TestClientScopeAllowed(t *testing.T) {
	c := Client{PermissionsNumber: scope.Encode(scope.RegistryUpload, scope.RegistryViewAnalytics)}
	if !c.ScopeAllowed(scope.Encode(scope.RegistryUpload)) {
		t.Error("requesting a subset of registered scopes should be allowed")
	}
	if c.ScopeAllowed(scope.Encode(scope.AccountManage)) {
		t.Error("requesting an unregistered scope should not be allowed")
	}
}

func TestRedirectURIAllowed(t *testing.T) {
	c := Client{RedirectURIs: []string{"https://example.com/cb"}}
	if !c.RedirectURIAllowed("https://example.com/cb") {
		t.Error("expected registered redirect URI to be allowed")
	}
	if c.RedirectURIAllowed("https://evil.example/cb") {
		t.Error("unregistered redirect URI should not be allowed")
	}
}
