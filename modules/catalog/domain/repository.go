package domain

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// ProductFilter narrows List results. Zero values mean "no filter".
type ProductFilter struct {
	Category   string
	ActiveOnly bool
	// Text matches a case-insensitive substring of name or description.
	Text string
	// MinPrice and MaxPrice are inclusive bounds; nil leaves that side open.
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Offset   int
	Limit    int
}

// ProductRepository persists product details. Update never writes stock;
// stock changes go through StockRepository so they cannot race with
// reservations.
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id types.ProductID) (*Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*Product, int, error)
	// Categories returns the distinct non-empty categories of active
	// products in ascending order.
	Categories(ctx context.Context) ([]string, error)
}

// StockRepository holds the storage primitives behind the inventory ledger.
type StockRepository interface {
	// Decrement atomically subtracts quantity if the product is active and has
	// at least quantity in stock. Returns ErrInsufficientStock otherwise, or
	// ErrProductNotFound for unknown ids.
	Decrement(ctx context.Context, id types.ProductID, quantity int) error
	// Increment adds quantity unconditionally.
	Increment(ctx context.Context, id types.ProductID, quantity int) error
	// Set overwrites the stock level.
	Set(ctx context.Context, id types.ProductID, stock int) error
}
