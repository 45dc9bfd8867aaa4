// Package catalog adapts the catalog module's inventory ledger to the cart's
// ProductCatalog port.
package catalog

import (
	"context"

	"github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/application/inventory"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

type LedgerAdapter struct {
	ledger *inventory.Ledger
}

func NewLedgerAdapter(ledger *inventory.Ledger) *LedgerAdapter {
	return &LedgerAdapter{ledger: ledger}
}

func (a *LedgerAdapter) Product(ctx context.Context, id types.ProductID) (domain.Product, error) {
	p, err := a.ledger.Product(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{ID: p.ID(), Name: p.Name(), Price: p.Price()}, nil
}

func (a *LedgerAdapter) IsAvailable(ctx context.Context, id types.ProductID, quantity int) (bool, error) {
	return a.ledger.IsAvailable(ctx, id, quantity)
}

var _ domain.ProductCatalog = (*LedgerAdapter)(nil)
