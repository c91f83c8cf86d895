package authcode

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/dbtx"
	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

// Store persists AuthorizationCode rows in the identity schema.
type Store struct {
	db dbtx.DBTX
}

// NewStore creates an authcode Store backed by db.
func NewStore(db dbtx.DBTX) *Store {
	return &Store{db: db}
}

const codeColumns = `client_id, code_hash, code_expiry, code_challenge, user_id, permissions_number, token_expiry, redirect_uri`

func scanCode(row pgx.Row) (AuthorizationCode, error) {
	var c AuthorizationCode
	var permissions int64
	err := row.Scan(&c.ClientID, &c.CodeHash, &c.CodeExpiry, &c.CodeChallenge, &c.UserID, &permissions, &c.TokenExpiry, &c.RedirectURI)
	if err != nil {
		return AuthorizationCode{}, err
	}
	c.PermissionsNumber = scope.Number(permissions)
	return c, nil
}

// Create inserts a pending authorization code row.
func (s *Store) Create(ctx context.Context, c AuthorizationCode) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO authorization_codes (`+codeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ClientID, c.CodeHash, c.CodeExpiry, c.CodeChallenge, c.UserID, int64(c.PermissionsNumber), c.TokenExpiry, c.RedirectURI)
	if err != nil {
		return fmt.Errorf("inserting authorization code: %w", err)
	}
	return nil
}

// Redeem deletes the row matching (clientID, codeHash) and returns it in the
// same statement, so a code can be consumed at most once even under
// concurrent exchange attempts (spec.md §5's single-shot redemption
// guarantee) without a separate read-then-delete round trip.
func (s *Store) Redeem(ctx context.Context, clientID, codeHash string) (AuthorizationCode, error) {
	row := s.db.QueryRow(ctx, `
		DELETE FROM authorization_codes
		WHERE client_id = $1 AND code_hash = $2
		RETURNING `+codeColumns+`
	`, clientID, codeHash)
	c, err := scanCode(row)
	if err != nil {
		return AuthorizationCode{}, &apperrors.NoSuchRequestError{ID: clientID, Detail: err.Error()}
	}
	return c, nil
}

// DeleteExpired removes authorization codes past their codeExpiry, called
// from a periodic cleanup task rather than on every exchange attempt.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM authorization_codes WHERE code_expiry < now()`)
	if err != nil {
		return 0, fmt.Errorf("deleting expired authorization codes: %w", err)
	}
	return tag.RowsAffected(), nil
}
