// Package inventory is the single authority over product stock.
//
// The ledger opens no transaction of its own: callers that need several
// stock movements to succeed or fail together run them inside one
// transaction.Scope and pass that ctx in.
package inventory

import (
	"context"
	"fmt"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/metrics"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

type Ledger struct {
	products domain.ProductRepository
	stock    domain.StockRepository
	metrics  *metrics.Metrics
}

// NewLedger creates a ledger. m may be nil.
func NewLedger(products domain.ProductRepository, stock domain.StockRepository, m *metrics.Metrics) *Ledger {
	return &Ledger{products: products, stock: stock, metrics: m}
}

// Product returns the current product state.
func (l *Ledger) Product(ctx context.Context, id types.ProductID) (*domain.Product, error) {
	p, err := l.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding product: %w", err)
	}
	return p, nil
}

// IsAvailable reports whether the product is active and has at least
// quantity units in stock. It never changes stock.
func (l *Ledger) IsAvailable(ctx context.Context, id types.ProductID, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, domain.ErrInvalidQuantity
	}
	p, err := l.Product(ctx, id)
	if err != nil {
		return false, err
	}
	return p.CanSupply(quantity), nil
}

// Reserve takes quantity units out of stock in one conditional update.
// Concurrent reservations against the same product never drive stock below zero.
func (l *Ledger) Reserve(ctx context.Context, id types.ProductID, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	err := l.stock.Decrement(ctx, id, quantity)
	l.observe("reserve", err)
	if err != nil {
		return fmt.Errorf("reserving %d of product %s: %w", quantity, id, err)
	}
	return nil
}

// Release returns quantity units to stock.
func (l *Ledger) Release(ctx context.Context, id types.ProductID, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	err := l.stock.Increment(ctx, id, quantity)
	l.observe("release", err)
	if err != nil {
		return fmt.Errorf("releasing %d of product %s: %w", quantity, id, err)
	}
	return nil
}

func (l *Ledger) observe(op string, err error) {
	if l.metrics == nil {
		return
	}
	l.metrics.StockReservations.WithLabelValues(op, metrics.Result(err)).Inc()
}
