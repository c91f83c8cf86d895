package user

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/dbtx"
)

// Store persists User and EmailChangeRequest rows in the identity schema.
type Store struct {
	db dbtx.DBTX
}

// NewStore creates a user Store backed by db.
func NewStore(db dbtx.DBTX) *Store {
	return &Store{db: db}
}

const userColumns = `user_id, email, name, password_hash, email_verified, profile_pic_url, name_change_date, is_developer`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.UserID, &u.Email, &u.Name, &u.PasswordHash, &u.EmailVerified, &u.ProfilePicURL, &u.NameChangeDate, &u.IsDeveloper)
	return u, err
}

// Create inserts a new user row.
func (s *Store) Create(ctx context.Context, u User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.UserID, u.Email, u.Name, u.PasswordHash, u.EmailVerified, u.ProfilePicURL, u.NameChangeDate, u.IsDeveloper)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetByID looks up a user by its opaque public id.
func (s *Store) GetByID(ctx context.Context, userID string) (User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
	u, err := scanUser(row)
	if err != nil {
		return User{}, &apperrors.NoSuchAccountError{ID: userID, Detail: err.Error()}
	}
	return u, nil
}

// GetByEmail looks up a user by lower-cased email.
func (s *Store) GetByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return User{}, &apperrors.NoSuchAccountError{ID: email, Detail: err.Error()}
	}
	return u, nil
}

// GetByNameOrEmail looks up a user by exact name or lower-cased email,
// whichever the login field matches.
func (s *Store) GetByNameOrEmail(ctx context.Context, usernameOrEmail string) (User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE name = $1 OR email = $1`, usernameOrEmail)
	u, err := scanUser(row)
	if err != nil {
		return User{}, &apperrors.NoSuchAccountError{ID: usernameOrEmail, Detail: err.Error()}
	}
	return u, nil
}

// NameExists reports whether name is already taken (case-insensitively).
func (s *Store) NameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(name) = lower($1))`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking name existence: %w", err)
	}
	return exists, nil
}

// EmailExists reports whether email is already registered.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}
	return exists, nil
}

// UpdateName renames a user and stamps the name-change cooldown.
func (s *Store) UpdateName(ctx context.Context, userID, name string, changedAt time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET name = $2, name_change_date = $3 WHERE user_id = $1`, userID, name, changedAt)
	if err != nil {
		return fmt.Errorf("updating name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &apperrors.NoSuchAccountError{ID: userID, Detail: "no rows updated"}
	}
	return nil
}

// UpdateEmail applies a verified email change and marks it verified.
func (s *Store) UpdateEmail(ctx context.Context, userID, email string) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET email = $2, email_verified = true WHERE user_id = $1`, userID, email)
	if err != nil {
		return fmt.Errorf("updating email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &apperrors.NoSuchAccountError{ID: userID, Detail: "no rows updated"}
	}
	return nil
}

// UpdatePasswordHash replaces a user's stored password hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE user_id = $1`, userID, hash)
	if err != nil {
		return fmt.Errorf("updating password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &apperrors.NoSuchAccountError{ID: userID, Detail: "no rows updated"}
	}
	return nil
}

const emailChangeColumns = `request_id, user_id, original_email, new_email, new_code_hash, expiry`

func scanEmailChangeRequest(row pgx.Row) (EmailChangeRequest, error) {
	var e EmailChangeRequest
	err := row.Scan(&e.RequestID, &e.UserID, &e.OriginalEmail, &e.NewEmail, &e.NewCodeHash, &e.Expiry)
	return e, err
}

// CreateEmailChangeRequest inserts a pending request. The unique constraint
// on user_id enforces at-most-one pending request per user (spec.md §3, §5).
func (s *Store) CreateEmailChangeRequest(ctx context.Context, e EmailChangeRequest) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO email_change_requests (`+emailChangeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.RequestID, e.UserID, e.OriginalEmail, e.NewEmail, e.NewCodeHash, e.Expiry)
	if err != nil {
		return fmt.Errorf("inserting email change request: %w", err)
	}
	return nil
}

// GetEmailChangeRequestByUser returns the pending request for userID, if any.
func (s *Store) GetEmailChangeRequestByUser(ctx context.Context, userID string) (EmailChangeRequest, error) {
	row := s.db.QueryRow(ctx, `SELECT `+emailChangeColumns+` FROM email_change_requests WHERE user_id = $1`, userID)
	e, err := scanEmailChangeRequest(row)
	if err != nil {
		return EmailChangeRequest{}, &apperrors.NoSuchRequestError{ID: userID, Detail: err.Error()}
	}
	return e, nil
}

// DeleteEmailChangeRequest removes the pending request for userID (redeemed
// or revoked).
func (s *Store) DeleteEmailChangeRequest(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM email_change_requests WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting email change request: %w", err)
	}
	return nil
}
