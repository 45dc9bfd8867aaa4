// Package commands contains write use cases for the cart module.
//
// Cart commands validate availability against the catalog but never
// reserve stock; reservation happens only at checkout.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// AddItemCommand adds quantity units of a product (in a size) to the user's cart.
type AddItemCommand struct {
	UserID    types.UserID
	ProductID string
	Quantity  int
	Size      string
}

// AddItemResult describes the cart line after the add.
type AddItemResult struct {
	ItemID    string `json:"item_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
}

type AddItemHandler struct {
	repo    domain.CartRepository
	catalog domain.ProductCatalog
	txScope transaction.Scope
}

func NewAddItemHandler(repo domain.CartRepository, catalog domain.ProductCatalog, txScope transaction.Scope) *AddItemHandler {
	return &AddItemHandler{repo: repo, catalog: catalog, txScope: txScope}
}

// Handle merges into an existing (product, size) line when present; the
// availability check then covers the combined quantity.
func (h *AddItemHandler) Handle(ctx context.Context, cmd AddItemCommand) (*AddItemResult, error) {
	if cmd.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	productID, err := types.ParseProductID(cmd.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product ID: %w", err)
	}

	// A concurrent first add may create the cart between our read and our
	// insert; the second attempt then finds and merges into it.
	res, err := h.add(ctx, cmd, productID)
	if errors.Is(err, domain.ErrCartConflict) {
		res, err = h.add(ctx, cmd, productID)
	}
	return res, err
}

func (h *AddItemHandler) add(ctx context.Context, cmd AddItemCommand, productID types.ProductID) (*AddItemResult, error) {
	return transaction.ExecuteWithResult(ctx, h.txScope, func(ctx context.Context) (*AddItemResult, error) {
		if _, err := h.catalog.Product(ctx, productID); err != nil {
			return nil, fmt.Errorf("finding product: %w", err)
		}

		cart, err := getOrCreate(ctx, h.repo, cmd.UserID)
		if err != nil {
			return nil, err
		}

		wanted := cart.QuantityAfterAdd(productID, cmd.Size, cmd.Quantity)
		if err := ensureAvailable(ctx, h.catalog, productID, wanted); err != nil {
			return nil, err
		}

		item, err := cart.AddItem(productID, cmd.Quantity, cmd.Size)
		if err != nil {
			return nil, err
		}
		if err := h.repo.Save(ctx, cart); err != nil {
			return nil, fmt.Errorf("saving cart: %w", err)
		}

		return &AddItemResult{
			ItemID:    item.ID.String(),
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			Size:      item.Size,
		}, nil
	})
}

func getOrCreate(ctx context.Context, repo domain.CartRepository, userID types.UserID) (*domain.Cart, error) {
	cart, err := repo.FindByUserID(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return domain.NewCart(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding cart: %w", err)
	}
	return cart, nil
}

func ensureAvailable(ctx context.Context, catalog domain.ProductCatalog, productID types.ProductID, quantity int) error {
	ok, err := catalog.IsAvailable(ctx, productID, quantity)
	if err != nil {
		return fmt.Errorf("checking availability: %w", err)
	}
	if !ok {
		return &types.ProductUnavailableError{ProductID: productID.String(), Requested: quantity}
	}
	return nil
}
