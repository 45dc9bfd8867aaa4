// Package cart provides the per-user shopping cart.
// This is the public API for the cart bounded context.
package cart

import (
	"context"
	"net/http"

	"github.com/rai/storefront-modularmonolith-go/modules/cart/application/commands"
	"github.com/rai/storefront-modularmonolith-go/modules/cart/application/queries"
	"github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	httphandler "github.com/rai/storefront-modularmonolith-go/modules/cart/infrastructure/http"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// Module is the public API for the cart bounded context.
type Module interface {
	// RegisterRoutes registers the module's HTTP routes to the given mux.
	RegisterRoutes(mux *http.ServeMux)
	// Lines returns the user's cart lines resolved against the catalog.
	// It joins the transaction in ctx, if any.
	Lines(ctx context.Context, userID types.UserID) ([]queries.Line, error)
	// Clear empties the user's cart. It joins the transaction in ctx, if any.
	Clear(ctx context.Context, userID types.UserID) error
}

// Config holds the module configuration.
type Config struct {
	Repository domain.CartRepository
	Catalog    domain.ProductCatalog
	TxScope    transaction.Scope
	// ReadScope, if set, gives cart views a consistent snapshot.
	ReadScope transaction.Scope
}

type module struct {
	repo    domain.CartRepository
	catalog domain.ProductCatalog
	handler *httphandler.Handler
}

// New creates a new cart module.
func New(cfg Config) Module {
	addItem := commands.NewAddItemHandler(cfg.Repository, cfg.Catalog, cfg.TxScope)
	updateItem := commands.NewUpdateItemQuantityHandler(cfg.Repository, cfg.Catalog, cfg.TxScope)
	removeItem := commands.NewRemoveItemHandler(cfg.Repository, cfg.TxScope)
	clearCart := commands.NewClearCartHandler(cfg.Repository, cfg.TxScope)

	getCart := queries.NewGetCartHandler(cfg.Repository, cfg.Catalog, cfg.ReadScope)
	cartTotals := queries.NewCartTotalsHandler(cfg.Repository, cfg.Catalog, cfg.ReadScope)
	itemCount := queries.NewItemCountHandler(cfg.Repository)

	return &module{
		repo:    cfg.Repository,
		catalog: cfg.Catalog,
		handler: httphandler.NewHandler(addItem, updateItem, removeItem, clearCart, getCart, cartTotals, itemCount),
	}
}

func (m *module) RegisterRoutes(mux *http.ServeMux) {
	m.handler.RegisterRoutes(mux)
}

func (m *module) Lines(ctx context.Context, userID types.UserID) ([]queries.Line, error) {
	return queries.LoadLines(ctx, m.repo, m.catalog, userID)
}

func (m *module) Clear(ctx context.Context, userID types.UserID) error {
	return commands.Clear(ctx, m.repo, userID)
}
