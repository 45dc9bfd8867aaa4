package commands

import (
	"context"
	"fmt"

	"github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// RemoveItemCommand removes one line from the user's cart.
type RemoveItemCommand struct {
	UserID types.UserID
	ItemID string
}

type RemoveItemHandler struct {
	repo    domain.CartRepository
	txScope transaction.Scope
}

func NewRemoveItemHandler(repo domain.CartRepository, txScope transaction.Scope) *RemoveItemHandler {
	return &RemoveItemHandler{repo: repo, txScope: txScope}
}

func (h *RemoveItemHandler) Handle(ctx context.Context, cmd RemoveItemCommand) error {
	itemID, err := types.ParseCartItemID(cmd.ItemID)
	if err != nil {
		return fmt.Errorf("invalid cart item ID: %w", err)
	}

	return h.txScope.Execute(ctx, func(ctx context.Context) error {
		cart, _, err := findOwnedItem(ctx, h.repo, cmd.UserID, itemID)
		if err != nil {
			return err
		}
		if err := cart.RemoveItem(itemID); err != nil {
			return err
		}
		if err := h.repo.Save(ctx, cart); err != nil {
			return fmt.Errorf("saving cart: %w", err)
		}
		return nil
	})
}
