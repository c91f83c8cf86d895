package xtoken

import (
	"context"
	"fmt"

	"github.com/ArkinSolomon/xpkg-core/internal/dbtx"
	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

// PostgresRepository persists Token rows in the identity schema's tokens
// table, using raw positional SQL for auth lookups rather than a generated
// query layer.
type PostgresRepository struct {
	db dbtx.DBTX
}

// NewPostgresRepository builds a Repository backed by db. Pass a pool
// directly for unscoped reads, or dbtx.Resolve(ctx, pool) inside a
// transactional call path.
func NewPostgresRepository(db dbtx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t Token) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tokens
			(id, user_id, client_id, token_secret_hash, token_type, permissions_number,
			 expiry, created, regenerated, used, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		t.ID, t.UserID, t.ClientID, t.TokenSecretHash, string(t.TokenType), int64(t.PermissionsNumber),
		t.Expiry, t.Created, t.Regenerated, t.Used, t.Data,
	)
	if err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Token, error) {
	var (
		t                 Token
		tokenType         string
		permissionsNumber int64
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, client_id, token_secret_hash, token_type, permissions_number,
		       expiry, created, regenerated, used, data
		FROM tokens
		WHERE id = $1
	`, id).Scan(
		&t.ID, &t.UserID, &t.ClientID, &t.TokenSecretHash, &tokenType, &permissionsNumber,
		&t.Expiry, &t.Created, &t.Regenerated, &t.Used, &t.Data,
	)
	if err != nil {
		return Token{}, fmt.Errorf("querying token %q: %w", id, err)
	}
	t.TokenType = Type(tokenType)
	t.PermissionsNumber = scope.Number(permissionsNumber)
	return t, nil
}
