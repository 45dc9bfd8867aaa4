package queries

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListProductsQuery lists products, optionally restricted to one category
// and an inclusive price range. Inactive products are only included for
// admin listings.
type ListProductsQuery struct {
	Category        string
	MinPrice        string
	MaxPrice        string
	IncludeInactive bool
	Offset          int
	Limit           int
}

type ListProductsResult struct {
	Products []*ProductDTO `json:"products"`
	Total    int           `json:"total"`
	Offset   int           `json:"offset"`
	Limit    int           `json:"limit"`
}

type ListProductsHandler struct {
	repo domain.ProductRepository
}

func NewListProductsHandler(repo domain.ProductRepository) *ListProductsHandler {
	return &ListProductsHandler{repo: repo}
}

func (h *ListProductsHandler) Handle(ctx context.Context, query ListProductsQuery) (*ListProductsResult, error) {
	offset := max(query.Offset, 0)
	limit := query.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	minPrice, maxPrice, err := parsePriceRange(query.MinPrice, query.MaxPrice)
	if err != nil {
		return nil, err
	}

	products, total, err := h.repo.List(ctx, domain.ProductFilter{
		Category:   query.Category,
		ActiveOnly: !query.IncludeInactive,
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	dtos := make([]*ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = ToProductDTO(p)
	}
	return &ListProductsResult{Products: dtos, Total: total, Offset: offset, Limit: limit}, nil
}

func parsePriceRange(minRaw, maxRaw string) (*decimal.Decimal, *decimal.Decimal, error) {
	parse := func(name, raw string) (*decimal.Decimal, error) {
		if raw == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return nil, fmt.Errorf("%w: %s %q", domain.ErrInvalidPriceRange, name, raw)
		}
		return &d, nil
	}
	minPrice, err := parse("min_price", minRaw)
	if err != nil {
		return nil, nil, err
	}
	maxPrice, err := parse("max_price", maxRaw)
	if err != nil {
		return nil, nil, err
	}
	if minPrice != nil && maxPrice != nil && minPrice.GreaterThan(*maxPrice) {
		return nil, nil, fmt.Errorf("%w: %s > %s", domain.ErrInvalidPriceRange, minPrice, maxPrice)
	}
	return minPrice, maxPrice, nil
}
