// Package queries contains read use cases for the cart module.
package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/pricing"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// CartItemDTO is one cart line priced at the product's current price.
type CartItemDTO struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Size        string    `json:"size,omitempty"`
	UnitPrice   string    `json:"unit_price"`
	LineTotal   string    `json:"line_total"`
	AddedAt     time.Time `json:"added_at"`
}

// TotalsDTO is the JSON shape of pricing.Totals.
type TotalsDTO struct {
	Subtotal    string `json:"subtotal"`
	Tax         string `json:"tax"`
	ShippingFee string `json:"shipping_fee"`
	Total       string `json:"total"`
	Currency    string `json:"currency"`
}

func ToTotalsDTO(t pricing.Totals) TotalsDTO {
	return TotalsDTO{
		Subtotal:    t.Subtotal.StringFixed(),
		Tax:         t.Tax.StringFixed(),
		ShippingFee: t.ShippingFee.StringFixed(),
		Total:       t.Total.StringFixed(),
		Currency:    t.Total.Currency(),
	}
}

type CartDTO struct {
	ID        string        `json:"id,omitempty"`
	UserID    string        `json:"user_id"`
	Items     []CartItemDTO `json:"items"`
	ItemCount int           `json:"item_count"`
	Totals    TotalsDTO     `json:"totals"`
}

// Line is a cart line resolved against the catalog.
type Line struct {
	Item    domain.CartItem
	Product domain.Product
}

// PricingLine returns the line as input to the pricing calculator.
func (l Line) PricingLine() pricing.Line {
	return pricing.Line{UnitPrice: l.Product.Price, Quantity: l.Item.Quantity}
}

// LoadLines returns the user's cart lines with current product data, in the
// order they were added. A user without a cart has no lines.
func LoadLines(ctx context.Context, repo domain.CartRepository, catalog domain.ProductCatalog, userID types.UserID) ([]Line, error) {
	cart, err := repo.FindByUserID(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding cart: %w", err)
	}
	return resolveLines(ctx, catalog, cart)
}

func resolveLines(ctx context.Context, catalog domain.ProductCatalog, cart *domain.Cart) ([]Line, error) {
	items := cart.Items()
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		p, err := catalog.Product(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("resolving product %s: %w", it.ProductID, err)
		}
		lines = append(lines, Line{Item: it, Product: p})
	}
	return lines, nil
}

// TotalsOf prices lines. An empty cart has zero totals.
func TotalsOf(lines []Line) pricing.Totals {
	in := make([]pricing.Line, len(lines))
	for i, l := range lines {
		in[i] = l.PricingLine()
	}
	return pricing.Calculate(in)
}

// GetCartQuery retrieves the user's cart with items.
type GetCartQuery struct {
	UserID types.UserID
}

type GetCartHandler struct {
	repo      domain.CartRepository
	catalog   domain.ProductCatalog
	readScope transaction.Scope
}

// NewGetCartHandler creates the handler. readScope may be nil; when set the
// cart and its products are read from one snapshot.
func NewGetCartHandler(repo domain.CartRepository, catalog domain.ProductCatalog, readScope transaction.Scope) *GetCartHandler {
	return &GetCartHandler{repo: repo, catalog: catalog, readScope: readScope}
}

// Handle returns an empty view for users who have no cart yet.
func (h *GetCartHandler) Handle(ctx context.Context, query GetCartQuery) (*CartDTO, error) {
	return transaction.ReadWithin(ctx, h.readScope, func(ctx context.Context) (*CartDTO, error) {
		return h.view(ctx, query.UserID)
	})
}

func (h *GetCartHandler) view(ctx context.Context, userID types.UserID) (*CartDTO, error) {
	dto := &CartDTO{UserID: userID.String(), Items: []CartItemDTO{}}

	cart, err := h.repo.FindByUserID(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		dto.Totals = ToTotalsDTO(pricing.ZeroTotals())
		return dto, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding cart: %w", err)
	}

	lines, err := resolveLines(ctx, h.catalog, cart)
	if err != nil {
		return nil, err
	}
	dto.ID = cart.ID().String()
	dto.Totals = ToTotalsDTO(TotalsOf(lines))
	for _, l := range lines {
		dto.ItemCount += l.Item.Quantity
		dto.Items = append(dto.Items, CartItemDTO{
			ID:          l.Item.ID.String(),
			ProductID:   l.Item.ProductID.String(),
			ProductName: l.Product.Name,
			Quantity:    l.Item.Quantity,
			Size:        l.Item.Size,
			UnitPrice:   l.Product.Price.StringFixed(),
			LineTotal:   l.Product.Price.Multiply(int64(l.Item.Quantity)).StringFixed(),
			AddedAt:     l.Item.AddedAt,
		})
	}
	return dto, nil
}
