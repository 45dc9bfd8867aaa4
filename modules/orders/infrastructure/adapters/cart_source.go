// Package adapters connects the orders module's ports to other modules.
package adapters

import (
	"context"

	"github.com/rai/storefront-modularmonolith-go/modules/cart"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// CartSource exposes the cart module as the orders CartSource port.
type CartSource struct {
	cart cart.Module
}

func NewCartSource(m cart.Module) *CartSource {
	return &CartSource{cart: m}
}

func (a *CartSource) Lines(ctx context.Context, userID types.UserID) ([]domain.CartLine, error) {
	lines, err := a.cart.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CartLine, len(lines))
	for i, l := range lines {
		out[i] = domain.CartLine{
			ProductID:   l.Item.ProductID,
			ProductName: l.Product.Name,
			Quantity:    l.Item.Quantity,
			Size:        l.Item.Size,
			UnitPrice:   l.Product.Price,
		}
	}
	return out, nil
}

func (a *CartSource) Clear(ctx context.Context, userID types.UserID) error {
	return a.cart.Clear(ctx, userID)
}

var _ domain.CartSource = (*CartSource)(nil)
