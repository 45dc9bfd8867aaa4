package commands

import (
	"context"
	"fmt"

	"github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// UpdateItemQuantityCommand sets a cart line's absolute quantity. Zero removes it.
type UpdateItemQuantityCommand struct {
	UserID   types.UserID
	ItemID   string
	Quantity int
}

type UpdateItemQuantityHandler struct {
	repo    domain.CartRepository
	catalog domain.ProductCatalog
	txScope transaction.Scope
}

func NewUpdateItemQuantityHandler(repo domain.CartRepository, catalog domain.ProductCatalog, txScope transaction.Scope) *UpdateItemQuantityHandler {
	return &UpdateItemQuantityHandler{repo: repo, catalog: catalog, txScope: txScope}
}

func (h *UpdateItemQuantityHandler) Handle(ctx context.Context, cmd UpdateItemQuantityCommand) error {
	if cmd.Quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	itemID, err := types.ParseCartItemID(cmd.ItemID)
	if err != nil {
		return fmt.Errorf("invalid cart item ID: %w", err)
	}

	return h.txScope.Execute(ctx, func(ctx context.Context) error {
		cart, item, err := findOwnedItem(ctx, h.repo, cmd.UserID, itemID)
		if err != nil {
			return err
		}

		if cmd.Quantity > 0 {
			if err := ensureAvailable(ctx, h.catalog, item.ProductID, cmd.Quantity); err != nil {
				return err
			}
		}

		if err := cart.SetQuantity(itemID, cmd.Quantity); err != nil {
			return err
		}
		if err := h.repo.Save(ctx, cart); err != nil {
			return fmt.Errorf("saving cart: %w", err)
		}
		return nil
	})
}

// findOwnedItem loads the cart holding itemID and checks it belongs to userID.
func findOwnedItem(ctx context.Context, repo domain.CartRepository, userID types.UserID, itemID types.CartItemID) (*domain.Cart, domain.CartItem, error) {
	cart, err := repo.FindByItemID(ctx, itemID)
	if err != nil {
		return nil, domain.CartItem{}, fmt.Errorf("finding cart item: %w", err)
	}
	if !cart.BelongsTo(userID) {
		return nil, domain.CartItem{}, types.ErrNotOwner
	}
	item, err := cart.Item(itemID)
	if err != nil {
		return nil, domain.CartItem{}, err
	}
	return cart, item, nil
}
