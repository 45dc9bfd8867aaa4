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

// UpdateStatusCommand is an administrative status change.
type UpdateStatusCommand struct {
	OrderID string
	Status  string
}

type UpdateStatusHandler struct {
	repo            domain.OrderRepository
	inventory       domain.Inventory
	txScope         transaction.Scope
	handlerRegistry eventbus.HandlerRegistry
	eventPublisher  events.Publisher
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

func NewUpdateStatusHandler(
	repo domain.OrderRepository,
	inventory domain.Inventory,
	txScope transaction.Scope,
	handlerRegistry eventbus.HandlerRegistry,
	eventPublisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *UpdateStatusHandler {
	return &UpdateStatusHandler{
		repo:            repo,
		inventory:       inventory,
		txScope:         txScope,
		handlerRegistry: handlerRegistry,
		eventPublisher:  eventPublisher,
		metrics:         m,
		logger:          logger,
	}
}

// Handle applies the transition. Moving an order to Cancelled releases its
// stock, the same as a customer cancellation.
func (h *UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) error {
	orderID, err := types.ParseOrderID(cmd.OrderID)
	if err != nil {
		return fmt.Errorf("invalid order ID: %w", err)
	}
	to, err := domain.ParseStatus(cmd.Status)
	if err != nil {
		return err
	}

	var (
		from   domain.Status
		number domain.OrderNumber
	)
	published, err := transaction.ExecuteWithResult(ctx, h.txScope, func(ctx context.Context) ([]events.Event, error) {
		eventBus := eventbus.NewTransactional(h.handlerRegistry, 10)

		order, err := h.repo.FindByID(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("finding order: %w", err)
		}
		from = order.Status()
		number = order.Number()

		if err := order.TransitionTo(to); err != nil {
			return nil, err
		}
		if to == domain.StatusCancelled {
			if err := releaseStock(ctx, h.inventory, order); err != nil {
				return nil, err
			}
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
		h.metrics.OrderTransitions.WithLabelValues(to.String()).Inc()
	}
	h.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", orderID.String()),
		slog.String("order_number", number.String()),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
	publishAfterCommit(ctx, h.eventPublisher, h.logger, number.String(), published)
	return nil
}
