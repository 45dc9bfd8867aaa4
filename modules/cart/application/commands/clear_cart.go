package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// ClearCartCommand empties the user's cart.
type ClearCartCommand struct {
	UserID types.UserID
}

type ClearCartHandler struct {
	repo    domain.CartRepository
	txScope transaction.Scope
}

func NewClearCartHandler(repo domain.CartRepository, txScope transaction.Scope) *ClearCartHandler {
	return &ClearCartHandler{repo: repo, txScope: txScope}
}

// Handle is a no-op for users without a cart or with an empty one.
func (h *ClearCartHandler) Handle(ctx context.Context, cmd ClearCartCommand) error {
	return h.txScope.Execute(ctx, func(ctx context.Context) error {
		return Clear(ctx, h.repo, cmd.UserID)
	})
}

// Clear empties the user's cart using the transaction in ctx, if any.
func Clear(ctx context.Context, repo domain.CartRepository, userID types.UserID) error {
	cart, err := repo.FindByUserID(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("finding cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil
	}
	cart.Clear()
	if err := repo.Save(ctx, cart); err != nil {
		return fmt.Errorf("saving cart: %w", err)
	}
	return nil
}
