package dbtx

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeTx is a minimal Tx for exercising RunInTx's control flow without a
// real database connection.
type fakeTx struct {
	id         int
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (f *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (f *fakeTx) Commit(ctx context.Context) error                             { f.committed = true; return nil }
func (f *fakeTx) Rollback(ctx context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeBeginner struct {
	beginCount int
	txs        []*fakeTx
}

func (b *fakeBeginner) Begin(ctx context.Context) (Tx, error) {
	b.beginCount++
	tx := &fakeTx{id: b.beginCount}
	b.txs = append(b.txs, tx)
	return tx, nil
}

func TestRunInTxCommitsOnSuccess(t *testing.T) {
	b := &fakeBeginner{}
	err := RunInTx(context.Background(), b, func(ctx context.Context, tx DBTX) error {
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}
	if b.beginCount != 1 {
		t.Fatalf("expected exactly one Begin, got %d", b.beginCount)
	}
	if !b.txs[0].committed {
		t.Error("expected the transaction to be committed")
	}
	if b.txs[0].rolledBack {
		t.Error("expected a committed transaction not to also roll back")
	}
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	b := &fakeBeginner{}
	wantErr := errors.New("boom")
	err := RunInTx(context.Background(), b, func(ctx context.Context, tx DBTX) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("RunInTx error = %v, want %v", err, wantErr)
	}
	if b.txs[0].committed {
		t.Error("expected a failed transaction not to commit")
	}
	if !b.txs[0].rolledBack {
		t.Error("expected a failed transaction to roll back")
	}
}

func TestRunInTxNestedInheritsOuterTransaction(t *testing.T) {
	b := &fakeBeginner{}

	err := RunInTx(context.Background(), b, func(outerCtx context.Context, outerTx DBTX) error {
		// A nested RunInTx call must reuse the outer transaction and must
		// not begin, commit, or roll back its own.
		return RunInTx(outerCtx, b, func(innerCtx context.Context, innerTx DBTX) error {
			if innerTx != outerTx {
				t.Error("expected the nested call to inherit the outer transaction")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}
	if b.beginCount != 1 {
		t.Fatalf("expected only the outer RunInTx to call Begin, got %d calls", b.beginCount)
	}
	if !b.txs[0].committed {
		t.Error("expected the outer transaction to be committed")
	}
}

func TestResolveFallsBackToPoolOutsideTransaction(t *testing.T) {
	fallback := &fakeTx{id: -1}
	got := Resolve(context.Background(), fallback)
	if got != DBTX(fallback) {
		t.Error("expected Resolve to return the fallback when no transaction is in context")
	}
}

func TestResolveReturnsAmbientTransaction(t *testing.T) {
	tx := &fakeTx{id: 1}
	ctx := WithTx(context.Background(), tx)
	fallback := &fakeTx{id: -1}

	got := Resolve(ctx, fallback)
	if got != DBTX(tx) {
		t.Error("expected Resolve to return the ambient transaction, not the fallback")
	}
}
