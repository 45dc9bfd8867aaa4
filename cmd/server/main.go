// Package main is the entry point for the storefront modular monolith.
// It wires together all modules and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/config"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/eventbus"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/httpserver"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/metrics"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/outbox"
	"github.com/rai/storefront-modularmonolith-go/modules/cart"
	cartcatalog "github.com/rai/storefront-modularmonolith-go/modules/cart/infrastructure/catalog"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog"
	catalogcache "github.com/rai/storefront-modularmonolith-go/modules/catalog/infrastructure/cache"
	catalogsearch "github.com/rai/storefront-modularmonolith-go/modules/catalog/infrastructure/search"
	"github.com/rai/storefront-modularmonolith-go/modules/notifications"
	"github.com/rai/storefront-modularmonolith-go/modules/orders"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/infrastructure/adapters"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events/contracts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	logger.Info("starting storefront", slog.String("store_driver", cfg.StoreDriver))

	if err := run(cfg, logger); err != nil {
		logger.Error("storefront stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	m := metrics.New()

	// In-transaction handlers run inside the command's transaction;
	// the async bus delivers events after commit.
	handlerRegistry := eventbus.NewEventHandlerRegistry(logger)
	eventBus := eventbus.New(logger)

	relay, closeSink := newRelay(cfg, st, m, logger)
	defer closeSink()
	if relay != nil {
		err := handlerRegistry.SubscribeAll(outbox.NewRecorder(st.outbox),
			contracts.ProductChangedEventType,
			contracts.OrderPlacedEventType,
			contracts.OrderCancelledEventType,
			contracts.OrderStatusChangedEventType,
		)
		if err != nil {
			return err
		}
	}

	catalogCfg := catalog.Config{
		Products:        st.products,
		Stock:           st.products,
		TxScope:         st.scope("catalog.tx", cfg.StoreDriver),
		HandlerRegistry: handlerRegistry,
		EventPublisher:  eventBus,
		EventSubscriber: eventBus,
		Metrics:         m,
		AdminToken:      cfg.AdminToken,
		Logger:          logger,
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		catalogCfg.Cache = catalogcache.NewRedisProductCache(rdb, cfg.ProductCacheTTL)
		logger.Info("product cache enabled", slog.String("addr", cfg.RedisAddr))
	}
	if len(cfg.ElasticsearchURLs) > 0 {
		index, err := catalogsearch.NewElasticsearchIndex(cfg.ElasticsearchURLs, cfg.SearchIndex)
		if err != nil {
			return err
		}
		catalogCfg.SearchIndex = index
		catalogCfg.Searcher = index
		logger.Info("product indexing enabled", slog.String("index", cfg.SearchIndex))
	}
	catalogModule := catalog.New(catalogCfg)

	cartModule := cart.New(cart.Config{
		Repository: st.carts,
		Catalog:    cartcatalog.NewLedgerAdapter(catalogModule.Inventory()),
		TxScope:    st.scope("cart.tx", cfg.StoreDriver),
		ReadScope:  st.readScope,
	})

	ordersModule := orders.New(orders.Config{
		Repository:      st.orders,
		Cart:            adapters.NewCartSource(cartModule),
		Inventory:       catalogModule.Inventory(),
		TxScope:         st.scope("orders.tx", cfg.StoreDriver),
		HandlerRegistry: handlerRegistry,
		EventPublisher:  eventBus,
		Metrics:         m,
		AdminToken:      cfg.AdminToken,
		Logger:          logger,
	})

	_ = notifications.New(notifications.Config{
		EventSubscriber: eventBus,
		Logger:          logger,
	})

	router := buildRouter(m, catalogModule, cartModule, ordersModule)
	handler := httpserver.Middleware(router,
		httpserver.Recovery(logger),
		httpserver.Logging(logger),
		httpserver.CORS([]string{"*"}),
		httpserver.Identity(),
		httpserver.Metrics(m),
	)

	serverCfg := httpserver.DefaultConfig()
	serverCfg.Port = cfg.HTTPPort
	serverCfg.ShutdownTimeout = cfg.ShutdownTimeout
	server := httpserver.New(serverCfg, handler, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	if relay != nil {
		g.Go(func() error { return relay.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newRelay returns the outbox relay, or nil when Kafka is not configured or
// the store driver has no outbox. The returned func closes the Kafka writer.
func newRelay(cfg config.Config, st stores, m *metrics.Metrics, logger *slog.Logger) (*outbox.Relay, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, func() {}
	}
	if st.outbox == nil {
		logger.Warn("kafka configured but the store driver has no outbox; events stay in-process",
			slog.String("store_driver", cfg.StoreDriver))
		return nil, func() {}
	}
	sink := outbox.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
	logger.Info("outbox relay enabled", slog.String("topic", cfg.KafkaTopic))
	return outbox.NewRelay(st.outbox, sink, cfg.OutboxPollInterval, m, logger), func() {
		if err := sink.Close(); err != nil {
			logger.Warn("closing kafka writer", slog.Any("error", err))
		}
	}
}

// buildRouter creates the main HTTP router with all module handlers.
func buildRouter(m *metrics.Metrics, catalogModule catalog.Module, cartModule cart.Module, ordersModule orders.Module) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", m.Handler())

	// Each module registers its own routes (same pattern as event subscriptions)
	catalogModule.RegisterRoutes(mux)
	cartModule.RegisterRoutes(mux)
	ordersModule.RegisterRoutes(mux)

	return mux
}
