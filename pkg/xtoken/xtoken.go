// Package xtoken implements the opaque bearer token format: issuance,
// positional parsing, and constant-work validation (spec.md §4.1, §6).
package xtoken

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

const (
	prefix       = "xpkg_"
	idLen        = 32
	secretLen    = 71
	minExpiryLen = 8
	minTotalLen  = len(prefix) + idLen + secretLen + minExpiryLen

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	bcryptCost = 12
)

// Type is one of the token kinds spec.md §3 enumerates.
type Type string

const (
	Identity Type = "Identity"
	Registry Type = "Registry"
	Action   Type = "Action"
	Forum    Type = "Forum"
	Store    Type = "Store"
	Client   Type = "Client"
	OAuth    Type = "OAuth"
	Issued   Type = "Issued"
)

// TTL returns the fixed lifetime for token types spec.md §4.1 gives one for.
// OAuth tokens carry a caller-supplied expiry from the code exchange instead.
func TTL(t Type) (time.Duration, bool) {
	switch t {
	case Identity:
		return 30 * time.Minute, true
	case Action:
		return 24 * time.Hour, true
	default:
		return 0, false
	}
}

// Token is the persisted row backing an issued bearer token.
type Token struct {
	ID                string
	UserID            string
	ClientID          *string
	TokenSecretHash   string
	TokenType         Type
	PermissionsNumber scope.Number
	Expiry            time.Time
	Created           time.Time
	Regenerated       time.Time
	Used              time.Time
	Data              *string
}

// Repository persists and retrieves Token rows.
type Repository interface {
	Create(ctx context.Context, t Token) error
	GetByID(ctx context.Context, id string) (Token, error)
}

// Issue generates a new token, hashes its secret, persists it through repo,
// and returns the external bearer string the caller hands back to the
// client.
func Issue(ctx context.Context, repo Repository, userID string, clientID *string, tokenType Type, permissions scope.Number, ttl time.Duration, data *string) (string, error) {
	id, err := randomAlnum(idLen)
	if err != nil {
		return "", fmt.Errorf("generating token id: %w", err)
	}
	secret, err := randomAlnum(secretLen)
	if err != nil {
		return "", fmt.Errorf("generating token secret: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing token secret: %w", err)
	}

	now := time.Now().UTC()
	expiry := now.Add(ttl)

	row := Token{
		ID:                id,
		UserID:            userID,
		ClientID:          clientID,
		TokenSecretHash:   string(hash),
		TokenType:         tokenType,
		PermissionsNumber: permissions,
		Expiry:            expiry,
		Created:           now,
		Regenerated:       now,
		Used:              now,
		Data:              data,
	}
	if err := repo.Create(ctx, row); err != nil {
		return "", fmt.Errorf("persisting token: %w", err)
	}

	return encodeExternal(id, secret, expiry), nil
}

// Validate parses and verifies an external bearer string, returning the
// backing Token row on success. Work performed is independent of how many
// tokens have been issued: reject-before-lookup checks (length, expiry
// encoding, expiry-in-the-past) run before any repository call, and the
// repository call is a single indexed lookup by token id.
func Validate(ctx context.Context, repo Repository, external string) (Token, error) {
	if len(external) < minTotalLen || !strings.HasPrefix(external, prefix) {
		return Token{}, &apperrors.ClientError{Code: apperrors.CodeUnauthorized, Message: "malformed token"}
	}

	id := external[len(prefix) : len(prefix)+idLen]
	secret := external[len(prefix)+idLen : len(prefix)+idLen+secretLen]
	expiryHex := external[len(prefix)+idLen+secretLen:]

	expiryUnix, err := strconv.ParseInt(expiryHex, 16, 64)
	if err != nil {
		return Token{}, &apperrors.ClientError{Code: apperrors.CodeUnauthorized, Message: "malformed token expiry"}
	}

	now := time.Now().UTC()
	if time.Unix(expiryUnix, 0).Before(now) {
		return Token{}, &apperrors.ClientError{Code: apperrors.CodeUnauthorized, Message: "token expired"}
	}

	row, err := repo.GetByID(ctx, id)
	if err != nil {
		return Token{}, &apperrors.NoSuchTokenError{ID: id, Detail: err.Error()}
	}

	if row.Expiry.Before(now) {
		return Token{}, &apperrors.NoSuchTokenError{ID: id, Detail: "token expired"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.TokenSecretHash), []byte(secret)); err != nil {
		return Token{}, &apperrors.ClientError{Code: apperrors.CodeUnauthorized, Message: "invalid token"}
	}

	return row, nil
}

// encodeExternal renders the fixed-shape external token string:
// xpkg_ ∥ id[32] ∥ secret[71] ∥ lower-case hex expiry (min 8 digits).
func encodeExternal(id, secret string, expiry time.Time) string {
	return fmt.Sprintf("%s%s%s%08x", prefix, id, secret, expiry.Unix())
}

// randomAlnum returns a random string of length n drawn from the 62-char
// alphanumeric alphabet using a cryptographically secure source.
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

// RandomAlnum exports the same 62-char-alphabet generator for the other
// opaque identifiers spec.md §3/§6 describe (user ids, private keys,
// authorization codes, client secrets), so every opaque id in the system is
// drawn from the one alphabet and source.
func RandomAlnum(n int) (string, error) {
	return randomAlnum(n)
}
