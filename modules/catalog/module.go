// Package catalog provides product lookup, administration and the inventory ledger.
// This is the public API for the catalog bounded context.
package catalog

import (
	"log/slog"
	"net/http"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/eventbus"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/metrics"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/application/commands"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/application/eventhandlers"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/application/inventory"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/application/queries"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
	httphandler "github.com/rai/storefront-modularmonolith-go/modules/catalog/infrastructure/http"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events/contracts"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
)

// Module is the public API for the catalog bounded context.
type Module interface {
	// RegisterRoutes registers the module's HTTP routes to the given mux.
	RegisterRoutes(mux *http.ServeMux)
	// Inventory is the stock authority other modules reserve against.
	Inventory() *inventory.Ledger
}

// Config holds the module configuration. Cache, SearchIndex and Searcher are
// optional. Without a Searcher, product search matches in the repository.
type Config struct {
	Products        domain.ProductRepository
	Stock           domain.StockRepository
	TxScope         transaction.Scope
	HandlerRegistry eventbus.HandlerRegistry
	EventPublisher  events.Publisher
	EventSubscriber events.Subscriber
	Cache           queries.ProductCache
	SearchIndex     eventhandlers.SearchIndex
	Searcher        queries.ProductSearcher
	Metrics         *metrics.Metrics
	AdminToken      string
	Logger          *slog.Logger
}

type module struct {
	ledger     *inventory.Ledger
	handler    *httphandler.Handler
	adminToken string
}

// New creates a new catalog module.
func New(cfg Config) Module {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", "catalog")

	createProduct := commands.NewCreateProductHandler(cfg.Products, cfg.TxScope, cfg.HandlerRegistry, cfg.EventPublisher)
	updateProduct := commands.NewUpdateProductHandler(cfg.Products, cfg.TxScope, cfg.HandlerRegistry, cfg.EventPublisher)
	setStock := commands.NewSetStockHandler(cfg.Products, cfg.Stock, cfg.TxScope, cfg.HandlerRegistry, cfg.EventPublisher)

	getProduct := queries.NewGetProductHandler(cfg.Products, cfg.Cache, logger)
	listProducts := queries.NewListProductsHandler(cfg.Products)
	searchProducts := queries.NewSearchProductsHandler(cfg.Products, cfg.Searcher, logger)
	listCategories := queries.NewListCategoriesHandler(cfg.Products)

	// Post-commit subscriptions
	if cfg.EventSubscriber != nil {
		if cfg.SearchIndex != nil {
			indexer := eventhandlers.NewProductIndexer(cfg.SearchIndex, logger)
			if err := cfg.EventSubscriber.Subscribe(contracts.ProductChangedEventType, indexer); err != nil {
				logger.Error("failed to subscribe product indexer", slog.Any("error", err))
			}
		}
		if cfg.Cache != nil {
			invalidator := eventhandlers.NewCacheInvalidator(cfg.Cache, logger)
			for _, t := range []events.EventType{
				contracts.ProductChangedEventType,
				contracts.OrderPlacedEventType,
				contracts.OrderCancelledEventType,
			} {
				if err := cfg.EventSubscriber.Subscribe(t, invalidator); err != nil {
					logger.Error("failed to subscribe cache invalidator", slog.String("event_type", t.String()), slog.Any("error", err))
				}
			}
		}
	}

	return &module{
		ledger:     inventory.NewLedger(cfg.Products, cfg.Stock, cfg.Metrics),
		handler:    httphandler.NewHandler(createProduct, updateProduct, setStock, getProduct, listProducts, searchProducts, listCategories),
		adminToken: cfg.AdminToken,
	}
}

func (m *module) RegisterRoutes(mux *http.ServeMux) {
	m.handler.RegisterRoutes(mux, m.adminToken)
}

func (m *module) Inventory() *inventory.Ledger {
	return m.ledger
}
