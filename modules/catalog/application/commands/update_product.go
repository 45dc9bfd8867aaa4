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

// UpdateProductCommand replaces a product's details. Stock is untouched.
type UpdateProductCommand struct {
	ProductID   string
	Name        string
	Description string
	Category    string
	Price       string
	Active      bool
}

type UpdateProductHandler struct {
	repo            domain.ProductRepository
	txScope         transaction.Scope
	handlerRegistry eventbus.HandlerRegistry
	eventPublisher  events.Publisher
}

func NewUpdateProductHandler(
	repo domain.ProductRepository,
	txScope transaction.Scope,
	handlerRegistry eventbus.HandlerRegistry,
	eventPublisher events.Publisher,
) *UpdateProductHandler {
	return &UpdateProductHandler{
		repo:            repo,
		txScope:         txScope,
		handlerRegistry: handlerRegistry,
		eventPublisher:  eventPublisher,
	}
}

func (h *UpdateProductHandler) Handle(ctx context.Context, cmd UpdateProductCommand) error {
	id, err := types.ParseProductID(cmd.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product ID: %w", err)
	}
	price, err := types.ParseMoney(cmd.Price, types.DefaultCurrency)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPrice, err)
	}

	var published []events.Event
	err = h.txScope.Execute(ctx, func(ctx context.Context) error {
		eventBus := eventbus.NewTransactional(h.handlerRegistry, 10)

		product, err := h.repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("finding product: %w", err)
		}
		if err := product.UpdateDetails(cmd.Name, cmd.Description, cmd.Category, price, cmd.Active); err != nil {
			return err
		}
		if err := h.repo.Update(ctx, product); err != nil {
			return fmt.Errorf("saving product: %w", err)
		}

		if err := eventBus.Publish(ctx, product.PopDomainEvents()...); err != nil {
			return fmt.Errorf("publishing events: %w", err)
		}
		if err := eventBus.Flush(ctx); err != nil {
			return fmt.Errorf("flushing events: %w", err)
		}
		published = eventBus.Published()
		return nil
	})
	if err != nil {
		return err
	}

	_ = h.eventPublisher.Publish(ctx, published...)
	return nil
}
