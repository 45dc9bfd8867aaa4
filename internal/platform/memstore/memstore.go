// Package memstore provides the transaction machinery for the in-memory store
// driver. All in-memory repositories share one Store; a transaction holds the
// store lock for its whole duration and undoes its writes on failure.
package memstore

import (
	"context"
	"errors"
	"sync"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
)

// ErrNestedTransaction is returned when Execute is called with a ctx that
// already carries an in-memory transaction.
var ErrNestedTransaction = errors.New("nested transaction detected: memstore does not support nested transactions")

// Store is the lock shared by every in-memory repository.
type Store struct {
	mu sync.Mutex
}

func New() *Store {
	return &Store{}
}

type txKey struct{}

type tx struct {
	undo []func()
}

func txFromContext(ctx context.Context) (*tx, bool) {
	t, ok := ctx.Value(txKey{}).(*tx)
	return t, ok
}

// InTransaction reports whether ctx carries an in-memory transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := txFromContext(ctx)
	return ok
}

// Lock acquires the store lock unless ctx already runs inside a transaction
// (which holds it). The returned func releases what was acquired.
func (s *Store) Lock(ctx context.Context) func() {
	if InTransaction(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// OnRollback registers fn to run if the surrounding transaction fails.
// Undo functions run in reverse registration order. Outside a transaction
// the write is final and fn is dropped.
func OnRollback(ctx context.Context, fn func()) {
	if t, ok := txFromContext(ctx); ok {
		t.undo = append(t.undo, fn)
	}
}

// TxScope implements transaction.Scope over a Store.
type TxScope struct {
	store *Store
}

func NewTxScope(store *Store) *TxScope {
	return &TxScope{store: store}
}

// Execute runs fn holding the store lock. If fn returns an error (or panics)
// every write registered through OnRollback is undone before the lock is released.
func (s *TxScope) Execute(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTransaction(ctx) {
		return ErrNestedTransaction
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	t := &tx{}
	committed := false
	defer func() {
		if committed {
			return
		}
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	committed = true
	return nil
}

var _ transaction.Scope = (*TxScope)(nil)
