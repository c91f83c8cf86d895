package jobsclient

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestVerifyTrustKey(t *testing.T) {
	secret := "the-coordinator-trust-secret"
	sum := sha256.Sum256([]byte(secret))
	hash := hex.EncodeToString(sum[:])

	if !verifyTrustKey(hash, secret) {
		t.Error("expected the matching trust key to verify")
	}
	if verifyTrustKey(hash, "wrong-secret") {
		t.Error("expected a mismatched trust key to fail verification")
	}
}
