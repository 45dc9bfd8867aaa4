package queries

import (
	"context"
	"errors"
	"fmt"

	"github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// CartTotalsQuery prices the user's cart at current product prices.
type CartTotalsQuery struct {
	UserID types.UserID
}

type CartTotalsHandler struct {
	repo      domain.CartRepository
	catalog   domain.ProductCatalog
	readScope transaction.Scope
}

func NewCartTotalsHandler(repo domain.CartRepository, catalog domain.ProductCatalog, readScope transaction.Scope) *CartTotalsHandler {
	return &CartTotalsHandler{repo: repo, catalog: catalog, readScope: readScope}
}

func (h *CartTotalsHandler) Handle(ctx context.Context, query CartTotalsQuery) (*TotalsDTO, error) {
	lines, err := transaction.ReadWithin(ctx, h.readScope, func(ctx context.Context) ([]Line, error) {
		return LoadLines(ctx, h.repo, h.catalog, query.UserID)
	})
	if err != nil {
		return nil, err
	}
	dto := ToTotalsDTO(TotalsOf(lines))
	return &dto, nil
}

// ItemCountQuery counts the units in the user's cart.
type ItemCountQuery struct {
	UserID types.UserID
}

type ItemCountHandler struct {
	repo domain.CartRepository
}

func NewItemCountHandler(repo domain.CartRepository) *ItemCountHandler {
	return &ItemCountHandler{repo: repo}
}

// Handle returns the sum of line quantities; zero without a cart.
func (h *ItemCountHandler) Handle(ctx context.Context, query ItemCountQuery) (int, error) {
	cart, err := h.repo.FindByUserID(ctx, query.UserID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("finding cart: %w", err)
	}
	return cart.ItemCount(), nil
}
