// Package queries contains read use cases for the catalog module.
package queries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// ProductDTO is a read model for product data.
type ProductDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       string    `json:"price"`
	Currency    string    `json:"currency"`
	Stock       int       `json:"stock"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductCache is a best-effort read-through cache for product views.
type ProductCache interface {
	Get(ctx context.Context, id string) (*ProductDTO, bool, error)
	Set(ctx context.Context, product *ProductDTO) error
	Delete(ctx context.Context, ids ...string) error
}

// GetProductQuery retrieves a product by ID.
type GetProductQuery struct {
	ProductID string
}

type GetProductHandler struct {
	repo   domain.ProductRepository
	cache  ProductCache
	group  singleflight.Group
	logger *slog.Logger
}

// NewGetProductHandler creates the handler. cache may be nil.
func NewGetProductHandler(repo domain.ProductRepository, cache ProductCache, logger *slog.Logger) *GetProductHandler {
	return &GetProductHandler{repo: repo, cache: cache, logger: logger}
}

// Handle serves from the cache when possible. Concurrent misses for the same
// product collapse into one repository read. Cache failures degrade to a
// plain repository read.
func (h *GetProductHandler) Handle(ctx context.Context, query GetProductQuery) (*ProductDTO, error) {
	id, err := types.ParseProductID(query.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product ID: %w", err)
	}

	if h.cache != nil {
		dto, ok, err := h.cache.Get(ctx, id.String())
		if err != nil {
			h.logger.Warn("product cache read failed", slog.String("product_id", id.String()), slog.Any("error", err))
		} else if ok {
			return dto, nil
		}
	}

	v, err, _ := h.group.Do(id.String(), func() (interface{}, error) {
		p, err := h.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		dto := ToProductDTO(p)
		if h.cache != nil {
			if err := h.cache.Set(ctx, dto); err != nil {
				h.logger.Warn("product cache write failed", slog.String("product_id", id.String()), slog.Any("error", err))
			}
		}
		return dto, nil
	})
	if err != nil {
		return nil, fmt.Errorf("finding product: %w", err)
	}
	return v.(*ProductDTO), nil
}

func ToProductDTO(p *domain.Product) *ProductDTO {
	return &ProductDTO{
		ID:          p.ID().String(),
		Name:        p.Name(),
		Description: p.Description(),
		Category:    p.Category(),
		Price:       p.Price().StringFixed(),
		Currency:    p.Price().Currency(),
		Stock:       p.Stock(),
		Active:      p.Active(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}
