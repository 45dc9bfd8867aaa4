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

// SetStockCommand overwrites a product's stock level (restock or stock count).
type SetStockCommand struct {
	ProductID string
	Stock     int
}

type SetStockHandler struct {
	products        domain.ProductRepository
	stock           domain.StockRepository
	txScope         transaction.Scope
	handlerRegistry eventbus.HandlerRegistry
	eventPublisher  events.Publisher
}

func NewSetStockHandler(
	products domain.ProductRepository,
	stock domain.StockRepository,
	txScope transaction.Scope,
	handlerRegistry eventbus.HandlerRegistry,
	eventPublisher events.Publisher,
) *SetStockHandler {
	return &SetStockHandler{
		products:        products,
		stock:           stock,
		txScope:         txScope,
		handlerRegistry: handlerRegistry,
		eventPublisher:  eventPublisher,
	}
}

func (h *SetStockHandler) Handle(ctx context.Context, cmd SetStockCommand) error {
	id, err := types.ParseProductID(cmd.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product ID: %w", err)
	}

	published, err := transaction.ExecuteWithResult(ctx, h.txScope, func(ctx context.Context) ([]events.Event, error) {
		eventBus := eventbus.NewTransactional(h.handlerRegistry, 10)

		p, err := h.products.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("finding product: %w", err)
		}
		if err := p.SetStock(cmd.Stock); err != nil {
			return nil, err
		}
		if err := h.stock.Set(ctx, id, cmd.Stock); err != nil {
			return nil, fmt.Errorf("setting stock: %w", err)
		}

		if err := eventBus.Publish(ctx, p.PopDomainEvents()...); err != nil {
			return nil, fmt.Errorf("publishing events: %w", err)
		}
		if err := eventBus.Flush(ctx); err != nil {
			return nil, fmt.Errorf("flushing events: %w", err)
		}
		return eventBus.Published(), nil
	})
	if err != nil {
		return err
	}

	_ = h.eventPublisher.Publish(ctx, published...)
	return nil
}
