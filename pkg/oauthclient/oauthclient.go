// Package oauthclient implements OAuth Client registration: the prefixed
// opaque client id/secret formats, the fixed redirect-URI set, and the
// monthly-user quota an OAuth token exchange increments (spec.md §3, §4.2,
// §6).
package oauthclient

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

const (
	clientIDPrefix     = "xpkg_id_"
	clientIDDigits     = 48
	clientSecretPrefix = "xpkg_secret_"
	clientSecretLen    = 71

	secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	digits         = "0123456789"
)

// reservedPrefixes names the proprietary services spec.md §6 reserves;
// third-party client registration must not collide with these.
var reservedPrefixes = []string{"xpkg_is_", "xpkg_dp_", "xpkg_fm_", "xpkg_st_", "xpkg_cl_", "xpkg_ps_"}

// Client is a registered OAuth client (spec.md §3).
type Client struct {
	ClientID          string
	SecretHash        *string
	UserID            string
	Name              string
	Description       string
	Icon              string
	RedirectURIs      []string
	PermissionsNumber scope.Number
	IsSecure          bool
	Quota             int
	CurrentUsers      int
}

// IsPublic reports whether the client is a public (no-secret) client.
func (c Client) IsPublic() bool {
	return !c.IsSecure
}

// RedirectURIAllowed reports whether uri is in the client's closed
// redirect-URI set (spec.md §4.2 authorize-request validation).
func (c Client) RedirectURIAllowed(uri string) bool {
	for _, allowed := range c.RedirectURIs {
		if allowed == uri {
			return true
		}
	}
	return false
}

// ScopeAllowed reports whether requested is a subset of the client's
// registered permissions number (spec.md §4.2: "scope ⊆
// decode(client.permissionsNumber)").
func (c Client) ScopeAllowed(requested scope.Number) bool {
	return c.PermissionsNumber&requested == requested
}

// QuotaExceeded reports whether the client has reached its monthly active
// user quota.
func (c Client) QuotaExceeded() bool {
	return c.CurrentUsers >= c.Quota
}

// NewClientID generates a client id of the fixed xpkg_id_ + 48-numeric-char
// shape (spec.md §6).
func NewClientID() (string, error) {
	digitsStr, err := randomFrom(digits, clientIDDigits)
	if err != nil {
		return "", fmt.Errorf("generating client id: %w", err)
	}
	return clientIDPrefix + digitsStr, nil
}

// NewClientSecret generates the raw, once-returned client secret of the
// fixed xpkg_secret_ + 71-alphanumeric-char shape (spec.md §6). The caller
// bcrypt-hashes it before persisting.
func NewClientSecret() (string, error) {
	secret, err := randomFrom(secretAlphabet, clientSecretLen)
	if err != nil {
		return "", fmt.Errorf("generating client secret: %w", err)
	}
	return clientSecretPrefix + secret, nil
}

// IsReservedID reports whether id uses one of the reserved internal-service
// prefixes and so cannot be assigned to a third-party client registration.
func IsReservedID(id string) bool {
	for _, prefix := range reservedPrefixes {
		if len(id) >= len(prefix) && id[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func randomFrom(alphabet string, n int) (string, error) {
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
