// Package eventhandlers contains the catalog's subscribers to domain events.
package eventhandlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events/contracts"
)

// ProductDocument is the search index representation of a product.
type ProductDocument struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	InStock     bool   `json:"in_stock"`
	Active      bool   `json:"active"`
}

// SearchIndex is the full-text side index. The relational store stays the
// source of truth; the index may lag or miss writes.
type SearchIndex interface {
	Index(ctx context.Context, doc ProductDocument) error
}

// ProductIndexer keeps the search index in step with product changes.
// Failures are logged and swallowed: indexing is best-effort.
type ProductIndexer struct {
	index  SearchIndex
	logger *slog.Logger
}

func NewProductIndexer(index SearchIndex, logger *slog.Logger) *ProductIndexer {
	return &ProductIndexer{index: index, logger: logger}
}

func (h *ProductIndexer) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(contracts.ProductChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: %T", event)
	}

	doc := ProductDocument{
		ID:          e.ProductID,
		Name:        e.Name,
		Description: e.Description,
		Category:    e.Category,
		Price:       e.Price,
		Currency:    e.Currency,
		InStock:     e.Stock > 0,
		Active:      e.Active,
	}
	if err := h.index.Index(ctx, doc); err != nil {
		h.logger.Warn("product indexing failed",
			slog.String("product_id", e.ProductID),
			slog.Any("error", err),
		)
	}
	return nil
}
