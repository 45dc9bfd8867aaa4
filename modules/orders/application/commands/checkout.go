// Package commands contains write use cases for the orders module.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/eventbus"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/metrics"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/application/queries"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// MaxOrderNumberAttempts bounds how many generated numbers checkout tries
// before giving up.
const MaxOrderNumberAttempts = 5

// CheckoutCommand turns the user's cart into an order.
type CheckoutCommand struct {
	UserID          types.UserID
	ShippingAddress string
	PaymentMethod   string
}

type CheckoutHandler struct {
	repo            domain.OrderRepository
	cart            domain.CartSource
	inventory       domain.Inventory
	numbers         *domain.NumberGenerator
	txScope         transaction.Scope
	handlerRegistry eventbus.HandlerRegistry
	eventPublisher  events.Publisher
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

// NewCheckoutHandler creates the handler. m may be nil.
func NewCheckoutHandler(
	repo domain.OrderRepository,
	cart domain.CartSource,
	inventory domain.Inventory,
	numbers *domain.NumberGenerator,
	txScope transaction.Scope,
	handlerRegistry eventbus.HandlerRegistry,
	eventPublisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		repo:            repo,
		cart:            cart,
		inventory:       inventory,
		numbers:         numbers,
		txScope:         txScope,
		handlerRegistry: handlerRegistry,
		eventPublisher:  eventPublisher,
		metrics:         m,
		logger:          logger,
	}
}

type checkoutResult struct {
	order     *domain.Order
	published []events.Event
}

// Handle runs the whole checkout in one transaction: any failure leaves the
// cart, stock and orders exactly as they were.
func (h *CheckoutHandler) Handle(ctx context.Context, cmd CheckoutCommand) (*queries.OrderDTO, error) {
	res, err := transaction.ExecuteWithResult(ctx, h.txScope, func(ctx context.Context) (*checkoutResult, error) {
		eventBus := eventbus.NewTransactional(h.handlerRegistry, 10)

		lines, err := h.cart.Lines(ctx, cmd.UserID)
		if err != nil {
			return nil, creationFailed("loading cart", err)
		}
		if len(lines) == 0 {
			return nil, domain.ErrEmptyCart
		}

		number, err := h.uniqueNumber(ctx)
		if err != nil {
			return nil, err
		}

		items := make([]domain.OrderItem, len(lines))
		for i, l := range lines {
			items[i] = domain.OrderItem{
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Quantity:    l.Quantity,
				Size:        l.Size,
				UnitPrice:   l.UnitPrice,
			}
		}
		order, err := domain.PlaceOrder(number, cmd.UserID, items, cmd.ShippingAddress, cmd.PaymentMethod)
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			if err := h.reserve(ctx, item); err != nil {
				return nil, err
			}
		}

		if err := h.repo.Create(ctx, order); err != nil {
			return nil, creationFailed("saving order", err)
		}
		if err := h.cart.Clear(ctx, cmd.UserID); err != nil {
			return nil, creationFailed("clearing cart", err)
		}

		if err := eventBus.Publish(ctx, order.PopDomainEvents()...); err != nil {
			return nil, fmt.Errorf("publishing events: %w", err)
		}
		if err := eventBus.Flush(ctx); err != nil {
			return nil, fmt.Errorf("flushing events: %w", err)
		}
		return &checkoutResult{order: order, published: eventBus.Published()}, nil
	})
	if h.metrics != nil {
		h.metrics.Checkouts.WithLabelValues(metrics.Result(err)).Inc()
	}
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "order placed",
		slog.String("order_number", res.order.Number().String()),
		slog.String("user_id", cmd.UserID.String()),
		slog.String("total", res.order.Totals().Total.StringFixed()),
	)
	publishAfterCommit(ctx, h.eventPublisher, h.logger, res.order.Number().String(), res.published)
	return queries.ToOrderDTO(res.order), nil
}

func (h *CheckoutHandler) uniqueNumber(ctx context.Context) (domain.OrderNumber, error) {
	for range MaxOrderNumberAttempts {
		number := h.numbers.Generate()
		exists, err := h.repo.ExistsByNumber(ctx, number)
		if err != nil {
			return domain.OrderNumber{}, creationFailed("checking order number", err)
		}
		if !exists {
			return number, nil
		}
	}
	return domain.OrderNumber{}, fmt.Errorf("%w: no unused order number after %d attempts", domain.ErrOrderCreationFailed, MaxOrderNumberAttempts)
}

// reserve re-checks availability at checkout time and takes the stock.
func (h *CheckoutHandler) reserve(ctx context.Context, item domain.OrderItem) error {
	unavailable := &types.ProductUnavailableError{ProductID: item.ProductID.String(), Requested: item.Quantity}

	ok, err := h.inventory.IsAvailable(ctx, item.ProductID, item.Quantity)
	if errors.Is(err, types.ErrProductNotFound) {
		return unavailable
	}
	if err != nil {
		return creationFailed("checking availability", err)
	}
	if !ok {
		return unavailable
	}

	err = h.inventory.Reserve(ctx, item.ProductID, item.Quantity)
	if errors.Is(err, types.ErrInsufficientStock) || errors.Is(err, types.ErrProductNotFound) {
		return unavailable
	}
	if err != nil {
		return creationFailed("reserving stock", err)
	}
	return nil
}

// publishAfterCommit fans events out to post-commit subscribers. The
// transaction has already committed, so failures are logged, not returned.
func publishAfterCommit(ctx context.Context, publisher events.Publisher, logger *slog.Logger, orderNumber string, evts []events.Event) {
	if err := publisher.Publish(ctx, evts...); err != nil {
		logger.WarnContext(ctx, "post-commit event publish failed",
			slog.String("order_number", orderNumber),
			slog.Int("events", len(evts)),
			slog.Any("error", err),
		)
	}
}

func creationFailed(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrOrderCreationFailed, step, err)
}
