package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/config"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/memstore"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/outbox"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/postgres"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/spanner"
	platformtx "github.com/rai/storefront-modularmonolith-go/internal/platform/transaction"
	cartdomain "github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	cartpersistence "github.com/rai/storefront-modularmonolith-go/modules/cart/infrastructure/persistence"
	catalogdomain "github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
	catalogpersistence "github.com/rai/storefront-modularmonolith-go/modules/catalog/infrastructure/persistence"
	ordersdomain "github.com/rai/storefront-modularmonolith-go/modules/orders/domain"
	orderspersistence "github.com/rai/storefront-modularmonolith-go/modules/orders/infrastructure/persistence"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
)

// stores holds the repositories and transaction scope of the selected driver.
type stores struct {
	products transactionalProducts
	carts    cartdomain.CartRepository
	orders   ordersdomain.OrderRepository
	txScope  transaction.Scope
	// readScope is nil when plain reads are already consistent enough.
	readScope transaction.Scope
	// outbox is nil when the driver has no outbox table.
	outbox outbox.Store
	close  func()
}

type transactionalProducts interface {
	catalogdomain.ProductRepository
	catalogdomain.StockRepository
}

// scope returns the shared transaction scope traced under name.
func (s stores) scope(name string, driver string) transaction.Scope {
	return platformtx.Traced(s.txScope, name, driver)
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return stores{}, err
		}
		logger.Info("connected to postgres")
		return stores{
			products: catalogpersistence.NewPostgresRepository(pool),
			carts:    cartpersistence.NewPostgresRepository(pool),
			orders:   orderspersistence.NewPostgresRepository(pool),
			txScope:  postgres.NewTxScope(pool),
			outbox:   outbox.NewPostgresStore(pool),
			close:    pool.Close,
		}, nil

	case config.DriverSpanner:
		spannerCfg := spanner.Config{
			ProjectID:  cfg.SpannerProjectID,
			InstanceID: cfg.SpannerInstanceID,
			DatabaseID: cfg.SpannerDatabaseID,

			MinSessions: cfg.SpannerMinSessions,
			MaxSessions: cfg.SpannerMaxSessions,
		}
		client, err := spanner.NewClient(ctx, spannerCfg)
		if err != nil {
			return stores{}, err
		}
		logger.Info("connected to spanner", slog.String("dsn", spannerCfg.DSN()))
		return stores{
			products:  catalogpersistence.NewSpannerRepository(client),
			carts:     cartpersistence.NewSpannerRepository(client),
			orders:    orderspersistence.NewSpannerRepository(client),
			txScope:   spanner.NewReadWriteTransactionScope(client),
			readScope: spanner.NewReadOnlyTransactionScope(client),
			close:     client.Close,
		}, nil

	case config.DriverMemory:
		store := memstore.New()
		logger.Warn("using in-memory store; data is lost on restart")
		return stores{
			products: catalogpersistence.NewInMemoryRepository(store),
			carts:    cartpersistence.NewInMemoryRepository(store),
			orders:   orderspersistence.NewInMemoryRepository(store),
			txScope:  memstore.NewTxScope(store),
			outbox:   outbox.NewMemoryStore(store),
			close:    func() {},
		}, nil
	}
	return stores{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
