package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/eventbus"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/metrics"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// CancelOrderCommand is a customer cancelling one of their own orders.
type CancelOrderCommand struct {
	UserID      types.UserID
	OrderNumber string
}

type CancelOrderHandler struct {
	repo            domain.OrderRepository
	inventory       domain.Inventory
	txScope         transaction.Scope
	handlerRegistry eventbus.HandlerRegistry
	eventPublisher  events.Publisher
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

func NewCancelOrderHandler(
	repo domain.OrderRepository,
	inventory domain.Inventory,
	txScope transaction.Scope,
	handlerRegistry eventbus.HandlerRegistry,
	eventPublisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CancelOrderHandler {
	return &CancelOrderHandler{
		repo:            repo,
		inventory:       inventory,
		txScope:         txScope,
		handlerRegistry: handlerRegistry,
		eventPublisher:  eventPublisher,
		metrics:         m,
		logger:          logger,
	}
}

// Handle releases every item's stock and marks the order Cancelled in one
// transaction. Only Pending and Confirmed orders can be cancelled.
func (h *CancelOrderHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
	number, err := domain.ParseOrderNumber(cmd.OrderNumber)
	if err != nil {
		return err
	}

	published, err := transaction.ExecuteWithResult(ctx, h.txScope, func(ctx context.Context) ([]events.Event, error) {
		eventBus := eventbus.NewTransactional(h.handlerRegistry, 10)

		order, err := h.repo.FindByNumber(ctx, number)
		if err != nil {
			return nil, fmt.Errorf("finding order: %w", err)
		}
		if !order.BelongsTo(cmd.UserID) {
			return nil, types.ErrNotOwner
		}

		if err := order.Cancel(); err != nil {
			return nil, err
		}
		if err := releaseStock(ctx, h.inventory, order); err != nil {
			return nil, err
		}
		if err := h.repo.Save(ctx, order); err != nil {
			return nil, fmt.Errorf("saving order: %w", err)
		}

		if err := eventBus.Publish(ctx, order.PopDomainEvents()...); err != nil {
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

	if h.metrics != nil {
		h.metrics.OrderTransitions.WithLabelValues(domain.StatusCancelled.String()).Inc()
	}
	h.logger.InfoContext(ctx, "order cancelled", slog.String("order_number", number.String()))
	publishAfterCommit(ctx, h.eventPublisher, h.logger, number.String(), published)
	return nil
}

func releaseStock(ctx context.Context, inventory domain.Inventory, order *domain.Order) error {
	for _, item := range order.Items() {
		if err := inventory.Release(ctx, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("releasing stock: %w", err)
		}
	}
	return nil
}
