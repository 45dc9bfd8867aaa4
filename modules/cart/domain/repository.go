package domain

import (
	"context"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// CartRepository persists carts together with their items.
type CartRepository interface {
	// FindByUserID returns ErrCartNotFound if the user has no cart yet.
	FindByUserID(ctx context.Context, userID types.UserID) (*Cart, error)
	// FindByItemID returns the cart holding the item, or ErrCartItemNotFound.
	FindByItemID(ctx context.Context, itemID types.CartItemID) (*Cart, error)
	// Save upserts the cart and replaces its item set.
	Save(ctx context.Context, cart *Cart) error
}
