package spanner

import (
	"context"

	"cloud.google.com/go/spanner"
)

type readWriteTxKey struct{}
type readOnlyTxKey struct{}

// withReadWriteTx embeds a ReadWriteTransaction in the context.
// Returns ErrNestedTransaction if ctx already carries any transaction.
func withReadWriteTx(ctx context.Context, tx *spanner.ReadWriteTransaction) (context.Context, error) {
	if inTransaction(ctx) {
		return nil, ErrNestedTransaction
	}
	return context.WithValue(ctx, readWriteTxKey{}, tx), nil
}

func withReadOnlyTx(ctx context.Context, tx *spanner.ReadOnlyTransaction) (context.Context, error) {
	if inTransaction(ctx) {
		return nil, ErrNestedTransaction
	}
	return context.WithValue(ctx, readOnlyTxKey{}, tx), nil
}

func inTransaction(ctx context.Context) bool {
	if _, ok := ReadWriteTxFromContext(ctx); ok {
		return true
	}
	_, ok := ctx.Value(readOnlyTxKey{}).(*spanner.ReadOnlyTransaction)
	return ok
}

// ReadWriteTxFromContext extracts a Spanner ReadWriteTransaction from context.
// Returns (nil, false) if no transaction is present.
func ReadWriteTxFromContext(ctx context.Context) (*spanner.ReadWriteTransaction, bool) {
	tx, ok := ctx.Value(readWriteTxKey{}).(*spanner.ReadWriteTransaction)
	return tx, ok
}

// Reader is the read surface shared by read-write and read-only transactions.
type Reader interface {
	ReadRow(ctx context.Context, table string, key spanner.Key, columns []string) (*spanner.Row, error)
	ReadRowUsingIndex(ctx context.Context, table, index string, key spanner.Key, columns []string) (*spanner.Row, error)
	Read(ctx context.Context, table string, keys spanner.KeySet, columns []string) *spanner.RowIterator
	Query(ctx context.Context, statement spanner.Statement) *spanner.RowIterator
}

// ReadTransactionFromContext returns the transaction in ctx for reading,
// falling back to a single-use read-only transaction on client.
func ReadTransactionFromContext(ctx context.Context, client *spanner.Client) Reader {
	if tx, ok := ReadWriteTxFromContext(ctx); ok {
		return tx
	}
	if tx, ok := ctx.Value(readOnlyTxKey{}).(*spanner.ReadOnlyTransaction); ok {
		return tx
	}
	return client.Single()
}

// Snapshot returns a reader that may serve several reads from one
// consistent view: the transaction in ctx, or a new multi-use read-only
// transaction that done closes.
func Snapshot(ctx context.Context, client *spanner.Client) (r Reader, done func()) {
	if tx, ok := ReadWriteTxFromContext(ctx); ok {
		return tx, func() {}
	}
	if tx, ok := ctx.Value(readOnlyTxKey{}).(*spanner.ReadOnlyTransaction); ok {
		return tx, func() {}
	}
	ro := client.ReadOnlyTransaction()
	return ro, ro.Close
}
