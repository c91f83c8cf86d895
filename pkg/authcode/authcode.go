// Package authcode implements the OAuth authorization-code + PKCE exchange
// (spec.md §4.2): code issuance from the authorize endpoint and single-shot,
// transactional redemption at the token endpoint.
package authcode

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"regexp"
	"time"

	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

const (
	codeLen  = 32
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// CodeTTL is the authorization code's fixed 30-second lifetime
	// (spec.md §3, §5).
	CodeTTL = 30 * time.Second
)

var verifierPattern = regexp.MustCompile(`^[A-Za-z0-9]{43,128}$`)

// ValidCodeVerifier reports whether verifier satisfies spec.md §6's PKCE
// code_verifier grammar (43-128 alphanumeric chars).
func ValidCodeVerifier(verifier string) bool {
	return verifierPattern.MatchString(verifier)
}

// AuthorizationCode is a pending, single-use code minted by the authorize
// endpoint (spec.md §3).
type AuthorizationCode struct {
	ClientID          string
	CodeHash          string
	CodeExpiry        time.Time
	CodeChallenge     string
	UserID            string
	PermissionsNumber scope.Number
	TokenExpiry       time.Time
	RedirectURI       string
}

// NewCode generates a random 32-char alphanumeric authorization code and its
// sha256 hex hash.
func NewCode() (code, hash string, err error) {
	code, err = randomAlnum(codeLen)
	if err != nil {
		return "", "", err
	}
	return code, hashCode(code), nil
}

// hashCode returns the sha256 hex digest of code, the form persisted and
// compared against (spec.md §3's codeHash).
func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// VerifyChallenge reports whether verifier's S256 PKCE transform matches the
// stored challenge (spec.md §4.2, §6). Comparison is constant-time.
func VerifyChallenge(challenge, verifier string) bool {
	sum := sha256.Sum256([]byte(verifier))
	computed := base64.RawURLEncoding.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}

func randomAlnum(n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
