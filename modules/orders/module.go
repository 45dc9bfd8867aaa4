// Package orders provides checkout and the order lifecycle.
// This is the public API for the orders bounded context.
package orders

import (
	"log/slog"
	"net/http"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/eventbus"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/metrics"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/application/commands"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/application/queries"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/domain"
	httphandler "github.com/rai/storefront-modularmonolith-go/modules/orders/infrastructure/http"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
)

// Module is the public API for the orders bounded context.
// External communication: HTTP API (RegisterRoutes)
// Cross-module communication: CartSource and Inventory ports, domain events
type Module interface {
	// RegisterRoutes registers the module's HTTP routes to the given mux.
	RegisterRoutes(mux *http.ServeMux)
}

// Config holds the module configuration. Numbers and Metrics are optional.
type Config struct {
	Repository      domain.OrderRepository
	Cart            domain.CartSource
	Inventory       domain.Inventory
	Numbers         *domain.NumberGenerator
	TxScope         transaction.Scope
	HandlerRegistry eventbus.HandlerRegistry
	EventPublisher  events.Publisher
	Metrics         *metrics.Metrics
	AdminToken      string
	Logger          *slog.Logger
}

type module struct {
	adminToken          string
	checkoutHandler     *commands.CheckoutHandler
	cancelOrderHandler  *commands.CancelOrderHandler
	updateStatusHandler *commands.UpdateStatusHandler
	getOrderHandler     *queries.GetOrderHandler
	listUserOrders      *queries.ListUserOrdersHandler
	countUserOrders     *queries.CountUserOrdersHandler
	listAllOrders       *queries.ListAllOrdersHandler
}

// New creates a new orders module.
func New(cfg Config) Module {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", "orders")

	numbers := cfg.Numbers
	if numbers == nil {
		numbers = domain.NewNumberGenerator(nil, nil)
	}

	return &module{
		adminToken: cfg.AdminToken,
		checkoutHandler: commands.NewCheckoutHandler(cfg.Repository, cfg.Cart, cfg.Inventory, numbers,
			cfg.TxScope, cfg.HandlerRegistry, cfg.EventPublisher, cfg.Metrics, logger),
		cancelOrderHandler: commands.NewCancelOrderHandler(cfg.Repository, cfg.Inventory,
			cfg.TxScope, cfg.HandlerRegistry, cfg.EventPublisher, cfg.Metrics, logger),
		updateStatusHandler: commands.NewUpdateStatusHandler(cfg.Repository, cfg.Inventory,
			cfg.TxScope, cfg.HandlerRegistry, cfg.EventPublisher, cfg.Metrics, logger),
		getOrderHandler: queries.NewGetOrderHandler(cfg.Repository),
		listUserOrders:  queries.NewListUserOrdersHandler(cfg.Repository),
		countUserOrders: queries.NewCountUserOrdersHandler(cfg.Repository),
		listAllOrders:   queries.NewListAllOrdersHandler(cfg.Repository),
	}
}

func (m *module) RegisterRoutes(mux *http.ServeMux) {
	httphandler.RegisterRoutes(mux, m.adminToken,
		m.checkoutHandler, m.cancelOrderHandler, m.updateStatusHandler,
		m.getOrderHandler, m.listUserOrders, m.countUserOrders, m.listAllOrders)
}
