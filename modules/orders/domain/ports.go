package domain

import (
	"context"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// CartLine is a cart line priced at the product's current price.
type CartLine struct {
	ProductID   types.ProductID
	ProductName string
	Quantity    int
	Size        string
	UnitPrice   types.Money
}

// CartSource is the orders module's port onto the user's cart. Both
// methods join the transaction carried by ctx.
type CartSource interface {
	Lines(ctx context.Context, userID types.UserID) ([]CartLine, error)
	Clear(ctx context.Context, userID types.UserID) error
}

// Inventory is the orders module's port onto the stock ledger.
type Inventory interface {
	IsAvailable(ctx context.Context, id types.ProductID, quantity int) (bool, error)
	Reserve(ctx context.Context, id types.ProductID, quantity int) error
	Release(ctx context.Context, id types.ProductID, quantity int) error
}
