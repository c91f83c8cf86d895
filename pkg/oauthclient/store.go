package oauthclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/dbtx"
	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

// Store persists Client rows in the identity schema.
type Store struct {
	db dbtx.DBTX
}

// NewStore creates a client Store backed by db.
func NewStore(db dbtx.DBTX) *Store {
	return &Store{db: db}
}

const clientColumns = `client_id, secret_hash, user_id, name, description, icon, redirect_uris, permissions_number, is_secure, quota, current_users`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	var redirectURIs string
	var permissions int64
	err := row.Scan(&c.ClientID, &c.SecretHash, &c.UserID, &c.Name, &c.Description, &c.Icon, &redirectURIs, &permissions, &c.IsSecure, &c.Quota, &c.CurrentUsers)
	if err != nil {
		return Client{}, err
	}
	c.PermissionsNumber = scope.Number(permissions)
	if redirectURIs != "" {
		c.RedirectURIs = strings.Split(redirectURIs, ",")
	}
	return c, nil
}

// Create inserts a new Client row.
func (s *Store) Create(ctx context.Context, c Client) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO oauth_clients (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, c.ClientID, c.SecretHash, c.UserID, c.Name, c.Description, c.Icon, strings.Join(c.RedirectURIs, ","), int64(c.PermissionsNumber), c.IsSecure, c.Quota, c.CurrentUsers)
	if err != nil {
		return fmt.Errorf("inserting oauth client: %w", err)
	}
	return nil
}

// GetByID looks up a client by id.
func (s *Store) GetByID(ctx context.Context, clientID string) (Client, error) {
	row := s.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM oauth_clients WHERE client_id = $1`, clientID)
	c, err := scanClient(row)
	if err != nil {
		return Client{}, &apperrors.NoSuchAccountError{ID: clientID, Detail: err.Error()}
	}
	return c, nil
}

// NameExists reports whether a client name is already registered.
func (s *Store) NameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM oauth_clients WHERE lower(name) = lower($1))`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking client name existence: %w", err)
	}
	return exists, nil
}

// IncrementCurrentUsers bumps a client's monthly active-user counter,
// called on a first-ever token exchange for a given user within the
// current billing period.
func (s *Store) IncrementCurrentUsers(ctx context.Context, clientID string) error {
	_, err := s.db.Exec(ctx, `UPDATE oauth_clients SET current_users = current_users + 1 WHERE client_id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("incrementing current users: %w", err)
	}
	return nil
}

// ResetCurrentUsers zeroes a client's monthly active-user counter at the
// start of a new billing period.
func (s *Store) ResetCurrentUsers(ctx context.Context, clientID string) error {
	_, err := s.db.Exec(ctx, `UPDATE oauth_clients SET current_users = 0 WHERE client_id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("resetting current users: %w", err)
	}
	return nil
}

// UpdateSecretHash replaces a client's secret hash on regeneration.
func (s *Store) UpdateSecretHash(ctx context.Context, clientID, secretHash string) error {
	tag, err := s.db.Exec(ctx, `UPDATE oauth_clients SET secret_hash = $2 WHERE client_id = $1`, clientID, secretHash)
	if err != nil {
		return fmt.Errorf("updating secret hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &apperrors.NoSuchAccountError{ID: clientID, Detail: "no rows updated"}
	}
	return nil
}
