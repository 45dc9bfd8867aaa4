package transaction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
)

type mockTransactionScope struct {
	executeFn func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.executeFn(ctx, fn)
}

func TestExecuteWithResult_Success(t *testing.T) {
	scope := &mockTransactionScope{
		executeFn: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
	}

	result, err := transaction.ExecuteWithResult(context.Background(), scope, func(ctx context.Context) (string, error) {
		return "ORD-20240115103000-1234", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ORD-20240115103000-1234" {
		t.Errorf("unexpected result %q", result)
	}
}

func TestExecuteWithResult_FnError(t *testing.T) {
	scope := &mockTransactionScope{
		executeFn: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
	}

	errFn := errors.New("fn error")
	result, err := transaction.ExecuteWithResult(context.Background(), scope, func(ctx context.Context) (string, error) {
		return "", errFn
	})

	if !errors.Is(err, errFn) {
		t.Errorf("expected errFn, got %v", err)
	}
	if result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

func TestExecuteWithResult_TransactionError(t *testing.T) {
	errTx := errors.New("transaction error")
	scope := &mockTransactionScope{
		executeFn: func(ctx context.Context, fn func(ctx context.Context) error) error {
			_ = fn(ctx) // fn succeeds but commit fails
			return errTx
		},
	}

	_, err := transaction.ExecuteWithResult(context.Background(), scope, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	if !errors.Is(err, errTx) {
		t.Errorf("expected errTx, got %v", err)
	}
}

func TestReadWithin_NilScopeRunsDirectly(t *testing.T) {
	result, err := transaction.ReadWithin(context.Background(), nil, func(ctx context.Context) (int, error) {
		return 3, nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 3 {
		t.Errorf("result = %d, want 3", result)
	}
}

func TestReadWithin_UsesScope(t *testing.T) {
	calls := 0
	scope := &mockTransactionScope{
		executeFn: func(ctx context.Context, fn func(ctx context.Context) error) error {
			calls++
			return fn(ctx)
		},
	}

	result, err := transaction.ReadWithin(context.Background(), scope, func(ctx context.Context) (string, error) {
		return "cart-1", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "cart-1" || calls != 1 {
		t.Errorf("result = %q, calls = %d", result, calls)
	}
}
