package domain

import (
	"context"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// Product is the cart's view of a catalog product.
type Product struct {
	ID    types.ProductID
	Name  string
	Price types.Money
}

// ProductCatalog is the cart's port onto the catalog module.
type ProductCatalog interface {
	Product(ctx context.Context, id types.ProductID) (Product, error)
	IsAvailable(ctx context.Context, id types.ProductID, quantity int) (bool, error)
}
