// Package commands contains the catalog's administrative write use cases.
package commands

import (
	"context"
	"fmt"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/eventbus"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// CreateProductCommand adds a product to the catalog.
type CreateProductCommand struct {
	Name        string
	Description string
	Category    string
	Price       string
	Stock       int
}

type CreateProductHandler struct {
	repo            domain.ProductRepository
	txScope         transaction.Scope
	handlerRegistry eventbus.HandlerRegistry
	eventPublisher  events.Publisher
}

func NewCreateProductHandler(
	repo domain.ProductRepository,
	txScope transaction.Scope,
	handlerRegistry eventbus.HandlerRegistry,
	eventPublisher events.Publisher,
) *CreateProductHandler {
	return &CreateProductHandler{
		repo:            repo,
		txScope:         txScope,
		handlerRegistry: handlerRegistry,
		eventPublisher:  eventPublisher,
	}
}

// Handle creates the product and returns its ID.
func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (string, error) {
	price, err := types.ParseMoney(cmd.Price, types.DefaultCurrency)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidPrice, err)
	}

	product, err := domain.NewProduct(cmd.Name, cmd.Description, cmd.Category, price, cmd.Stock)
	if err != nil {
		return "", err
	}

	var published []events.Event
	err = h.txScope.Execute(ctx, func(ctx context.Context) error {
		// Create event bus inside closure for Spanner retry safety
		eventBus := eventbus.NewTransactional(h.handlerRegistry, 10)

		if err := h.repo.Create(ctx, product); err != nil {
			return fmt.Errorf("saving product: %w", err)
		}

		if err := eventBus.Publish(ctx, product.DomainEvents()...); err != nil {
			return fmt.Errorf("publishing events: %w", err)
		}
		if err := eventBus.Flush(ctx); err != nil {
			return fmt.Errorf("flushing events: %w", err)
		}
		published = eventBus.Published()
		return nil
	})
	if err != nil {
		return "", err
	}
	product.ClearDomainEvents()

	_ = h.eventPublisher.Publish(ctx, published...)
	return product.ID().String(), nil
}
