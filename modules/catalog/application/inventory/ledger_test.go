package inventory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/memstore"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/metrics"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/application/inventory"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/infrastructure/persistence"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

func setup(t *testing.T, stock int) (*inventory.Ledger, *memstore.Store, types.ProductID) {
	t.Helper()
	store := memstore.New()
	repo := persistence.NewInMemoryRepository(store)
	p, err := domain.NewProduct("Trail Runner", "", "shoes", types.USD("29.99"), stock)
	if err != nil {
		t.Fatalf("creating product: %v", err)
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("saving product: %v", err)
	}
	return inventory.NewLedger(repo, repo, metrics.New()), store, p.ID()
}

func stockOf(t *testing.T, l *inventory.Ledger, id types.ProductID) int {
	t.Helper()
	p, err := l.Product(context.Background(), id)
	if err != nil {
		t.Fatalf("reading product: %v", err)
	}
	return p.Stock()
}

func TestLedger_IsAvailable(t *testing.T) {
	l, _, id := setup(t, 3)
	ctx := context.Background()

	ok, err := l.IsAvailable(ctx, id, 3)
	if err != nil || !ok {
		t.Errorf("expected 3 available, got ok=%v err=%v", ok, err)
	}
	ok, err = l.IsAvailable(ctx, id, 4)
	if err != nil || ok {
		t.Errorf("expected 4 unavailable, got ok=%v err=%v", ok, err)
	}
	if stockOf(t, l, id) != 3 {
		t.Error("IsAvailable must not change stock")
	}
}

func TestLedger_UnknownProduct(t *testing.T) {
	l, _, _ := setup(t, 3)
	unknown := types.NewProductID()
	ctx := context.Background()

	if _, err := l.IsAvailable(ctx, unknown, 1); !errors.Is(err, types.ErrProductNotFound) {
		t.Errorf("IsAvailable: expected ErrProductNotFound, got %v", err)
	}
	if err := l.Reserve(ctx, unknown, 1); !errors.Is(err, types.ErrProductNotFound) {
		t.Errorf("Reserve: expected ErrProductNotFound, got %v", err)
	}
	if err := l.Release(ctx, unknown, 1); !errors.Is(err, types.ErrProductNotFound) {
		t.Errorf("Release: expected ErrProductNotFound, got %v", err)
	}
}

func TestLedger_InvalidQuantity(t *testing.T) {
	l, _, id := setup(t, 3)
	ctx := context.Background()

	for _, q := range []int{0, -1} {
		if _, err := l.IsAvailable(ctx, id, q); !errors.Is(err, types.ErrInvalidQuantity) {
			t.Errorf("IsAvailable(%d): expected ErrInvalidQuantity, got %v", q, err)
		}
		if err := l.Reserve(ctx, id, q); !errors.Is(err, types.ErrInvalidQuantity) {
			t.Errorf("Reserve(%d): expected ErrInvalidQuantity, got %v", q, err)
		}
		if err := l.Release(ctx, id, q); !errors.Is(err, types.ErrInvalidQuantity) {
			t.Errorf("Release(%d): expected ErrInvalidQuantity, got %v", q, err)
		}
	}
	if stockOf(t, l, id) != 3 {
		t.Error("invalid quantities must not touch stock")
	}
}

func TestLedger_ReserveAndRelease(t *testing.T) {
	l, _, id := setup(t, 5)
	ctx := context.Background()

	if err := l.Reserve(ctx, id, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := stockOf(t, l, id); got != 3 {
		t.Errorf("expected stock 3, got %d", got)
	}

	if err := l.Reserve(ctx, id, 4); !errors.Is(err, types.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
	if got := stockOf(t, l, id); got != 3 {
		t.Errorf("failed reservation changed stock to %d", got)
	}

	if err := l.Release(ctx, id, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := stockOf(t, l, id); got != 5 {
		t.Errorf("expected stock 5, got %d", got)
	}
}

func TestLedger_ReserveRolledBackWithTransaction(t *testing.T) {
	l, store, id := setup(t, 5)
	scope := memstore.NewTxScope(store)

	err := scope.Execute(context.Background(), func(ctx context.Context) error {
		if err := l.Reserve(ctx, id, 2); err != nil {
			return err
		}
		return l.Reserve(ctx, id, 10)
	})

	if !errors.Is(err, types.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := stockOf(t, l, id); got != 5 {
		t.Errorf("expected rollback to restore stock 5, got %d", got)
	}
}

func TestLedger_ConcurrentReservesNeverOversell(t *testing.T) {
	const stock, workers = 10, 50
	l, _, id := setup(t, stock)

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Reserve(context.Background(), id, 1)
			switch {
			case err == nil:
				succeeded.Add(1)
			case !errors.Is(err, types.ErrInsufficientStock):
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := succeeded.Load(); got != stock {
		t.Errorf("expected exactly %d successful reservations, got %d", stock, got)
	}
	if got := stockOf(t, l, id); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
}
