// Package dbtx provides the single multi-document transaction abstraction
// required by spec.md §9: many mutations touch two repositories at once
// (version status + author storage, authorization code + token issuance,
// email-change request + user), and nested callers must be able to inherit
// an already-open transaction without committing or closing it themselves.
package dbtx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of *pgxpool.Pool and pgx.Tx that repository stores
// depend on. Stores are constructed with a DBTX rather than a concrete pool
// so the same store code runs against either the pool directly or a
// transaction obtained through RunInTx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx extends DBTX with the commit/rollback operations RunInTx needs. pgx.Tx
// satisfies this interface structurally.
type Tx interface {
	DBTX
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Beginner starts a new transaction. poolBeginner adapts a *pgxpool.Pool.
type Beginner interface {
	Begin(ctx context.Context) (Tx, error)
}

type poolBeginner struct{ pool *pgxpool.Pool }

// NewBeginner adapts a pgx connection pool into a Beginner.
func NewBeginner(pool *pgxpool.Pool) Beginner { return poolBeginner{pool: pool} }

func (p poolBeginner) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

type txKey struct{}

// WithTx returns a context carrying tx, so that a nested RunInTx call (or a
// store reading the ambient transaction directly) observes it.
func WithTx(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// FromContext returns the transaction carried by ctx, if any.
func FromContext(ctx context.Context) (Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(Tx)
	return tx, ok
}

// Resolve returns the ambient transaction in ctx if present, else fallback
// (typically the connection pool, satisfying DBTX directly).
func Resolve(ctx context.Context, fallback DBTX) DBTX {
	if tx, ok := FromContext(ctx); ok {
		return tx
	}
	return fallback
}

// RunInTx runs fn under a transaction. If ctx already carries a transaction
// (a nested call from an outer RunInTx), fn runs against that transaction
// directly and this call neither commits nor rolls it back — only the
// outermost RunInTx controls the transaction's lifetime. Otherwise a new
// transaction is opened, rolled back automatically if fn (or the commit)
// fails, and committed on success.
func RunInTx(ctx context.Context, b Beginner, fn func(ctx context.Context, tx DBTX) error) error {
	if existing, ok := FromContext(ctx); ok {
		return fn(ctx, existing)
	}

	tx, err := b.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op once committed

	if err := fn(WithTx(ctx, tx), tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
