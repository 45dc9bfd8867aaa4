package queries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// Search result sources.
const (
	SourceIndex   = "index"
	SourceCatalog = "catalog"
)

// ProductSearcher finds active product IDs by full-text relevance.
type ProductSearcher interface {
	Search(ctx context.Context, text string, limit int) ([]string, error)
}

type SearchProductsQuery struct {
	Text  string
	Limit int
}

type SearchProductsResult struct {
	Products []*ProductDTO `json:"products"`
	Source   string        `json:"source"`
}

// SearchProductsHandler queries the search index and hydrates hits from the
// repository, so stock and price are current. When the index is missing or
// fails it falls back to a substring match in the repository.
type SearchProductsHandler struct {
	repo     domain.ProductRepository
	searcher ProductSearcher
	logger   *slog.Logger
}

func NewSearchProductsHandler(repo domain.ProductRepository, searcher ProductSearcher, logger *slog.Logger) *SearchProductsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchProductsHandler{repo: repo, searcher: searcher, logger: logger}
}

func (h *SearchProductsHandler) Handle(ctx context.Context, query SearchProductsQuery) (*SearchProductsResult, error) {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return nil, domain.ErrEmptySearch
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	if h.searcher != nil {
		ids, err := h.searcher.Search(ctx, text, limit)
		if err == nil {
			products, err := h.hydrate(ctx, ids)
			if err != nil {
				return nil, err
			}
			return &SearchProductsResult{Products: products, Source: SourceIndex}, nil
		}
		h.logger.WarnContext(ctx, "search index unavailable, falling back to catalog",
			slog.String("text", text), slog.Any("error", err))
	}

	products, _, err := h.repo.List(ctx, domain.ProductFilter{Text: text, ActiveOnly: true, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	dtos := make([]*ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = ToProductDTO(p)
	}
	return &SearchProductsResult{Products: dtos, Source: SourceCatalog}, nil
}

// hydrate loads index hits in relevance order. Hits the index still holds
// for deleted or deactivated products are dropped.
func (h *SearchProductsHandler) hydrate(ctx context.Context, ids []string) ([]*ProductDTO, error) {
	dtos := make([]*ProductDTO, 0, len(ids))
	for _, raw := range ids {
		id, err := types.ParseProductID(raw)
		if err != nil {
			continue
		}
		p, err := h.repo.FindByID(ctx, id)
		if errors.Is(err, domain.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading search hit %s: %w", raw, err)
		}
		if p.Active() {
			dtos = append(dtos, ToProductDTO(p))
		}
	}
	return dtos, nil
}

type ListCategoriesHandler struct {
	repo domain.ProductRepository
}

func NewListCategoriesHandler(repo domain.ProductRepository) *ListCategoriesHandler {
	return &ListCategoriesHandler{repo: repo}
}

// Handle returns the categories that have at least one active product.
func (h *ListCategoriesHandler) Handle(ctx context.Context) ([]string, error) {
	categories, err := h.repo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}
