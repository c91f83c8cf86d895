package author

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/dbtx"
)

// Store persists Author rows in the registry schema.
type Store struct {
	db dbtx.DBTX
}

// NewStore creates an author Store backed by db.
func NewStore(db dbtx.DBTX) *Store {
	return &Store{db: db}
}

const authorColumns = `author_id, author_name, author_email, email_verified, used_storage, total_storage, author_banned, ban_reason`

func scanAuthor(row pgx.Row) (Author, error) {
	var a Author
	err := row.Scan(&a.AuthorID, &a.AuthorName, &a.AuthorEmail, &a.EmailVerified, &a.UsedStorage, &a.TotalStorage, &a.AuthorBanned, &a.BanReason)
	return a, err
}

// Create inserts a new Author row, mirroring a newly signed-up User.
func (s *Store) Create(ctx context.Context, a Author) error {
	if a.TotalStorage == 0 {
		a.TotalStorage = DefaultTotalStorage
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO authors (`+authorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.AuthorID, a.AuthorName, a.AuthorEmail, a.EmailVerified, a.UsedStorage, a.TotalStorage, a.AuthorBanned, a.BanReason)
	if err != nil {
		return fmt.Errorf("inserting author: %w", err)
	}
	return nil
}

// GetByID looks up an author by id.
func (s *Store) GetByID(ctx context.Context, authorID string) (Author, error) {
	row := s.db.QueryRow(ctx, `SELECT `+authorColumns+` FROM authors WHERE author_id = $1`, authorID)
	a, err := scanAuthor(row)
	if err != nil {
		return Author{}, &apperrors.NoSuchAccountError{ID: authorID, Detail: err.Error()}
	}
	return a, nil
}

// ReserveStorage atomically checks usedStorage+size <= totalStorage and, if
// so, increments usedStorage by size. Callers run this inside a
// dbtx.RunInTx alongside the Version status transition (spec.md §4.4 step
// 11, §5 "storage consumption is transactional").
func (s *Store) ReserveStorage(ctx context.Context, authorID string, size int64) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `
		UPDATE authors
		SET used_storage = used_storage + $2
		WHERE author_id = $1 AND used_storage + $2 <= total_storage
		RETURNING true
	`, authorID, size).Scan(&ok)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("reserving storage: %w", err)
	}
	return ok, nil
}

// ReleaseStorage refunds size back to an author's used storage, used when a
// reserved upload ultimately fails or is removed.
func (s *Store) ReleaseStorage(ctx context.Context, authorID string, size int64) error {
	_, err := s.db.Exec(ctx, `UPDATE authors SET used_storage = GREATEST(0, used_storage - $2) WHERE author_id = $1`, authorID, size)
	if err != nil {
		return fmt.Errorf("releasing storage: %w", err)
	}
	return nil
}
