package commands_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/eventbus"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/memstore"
	"github.com/rai/storefront-modularmonolith-go/modules/cart"
	cartcommands "github.com/rai/storefront-modularmonolith-go/modules/cart/application/commands"
	cartcatalog "github.com/rai/storefront-modularmonolith-go/modules/cart/infrastructure/catalog"
	cartpersistence "github.com/rai/storefront-modularmonolith-go/modules/cart/infrastructure/persistence"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/application/inventory"
	catalogdomain "github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
	catalogpersistence "github.com/rai/storefront-modularmonolith-go/modules/catalog/infrastructure/persistence"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/application/commands"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/infrastructure/adapters"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/infrastructure/persistence"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// --- Fixture ---

// store wires the catalog, cart and orders modules over one in-memory store.
type store struct {
	products  *catalogpersistence.InMemoryRepository
	carts     *cartpersistence.InMemoryRepository
	orders    *persistence.InMemoryRepository
	ledger    *inventory.Ledger
	cartSrc   *adapters.CartSource
	txScope   *memstore.TxScope
	registry  *eventbus.EventHandlerRegistry
	published *recordingPublisher
	logger    *slog.Logger
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, evts ...events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	return nil
}

func (p *recordingPublisher) eventTypes() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func newStore() *store {
	ms := memstore.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	products := catalogpersistence.NewInMemoryRepository(ms)
	carts := cartpersistence.NewInMemoryRepository(ms)
	ledger := inventory.NewLedger(products, products, nil)
	txScope := memstore.NewTxScope(ms)
	cartModule := cart.New(cart.Config{
		Repository: carts,
		Catalog:    cartcatalog.NewLedgerAdapter(ledger),
		TxScope:    txScope,
	})
	return &store{
		products:  products,
		carts:     carts,
		orders:    persistence.NewInMemoryRepository(ms),
		ledger:    ledger,
		cartSrc:   adapters.NewCartSource(cartModule),
		txScope:   txScope,
		registry:  eventbus.NewEventHandlerRegistry(logger),
		published: &recordingPublisher{},
		logger:    logger,
	}
}

func (s *store) product(t *testing.T, name, price string, stock int) *catalogdomain.Product {
	t.Helper()
	p, err := catalogdomain.NewProduct(name, "", "misc", types.USD(price), stock)
	if err != nil {
		t.Fatalf("creating product: %v", err)
	}
	if err := s.products.Create(context.Background(), p); err != nil {
		t.Fatalf("saving product: %v", err)
	}
	return p
}

func (s *store) addToCart(t *testing.T, userID types.UserID, p *catalogdomain.Product, qty int) {
	t.Helper()
	h := cartcommands.NewAddItemHandler(s.carts, cartcatalog.NewLedgerAdapter(s.ledger), s.txScope)
	if _, err := h.Handle(context.Background(), cartcommands.AddItemCommand{UserID: userID, ProductID: p.ID().String(), Quantity: qty}); err != nil {
		t.Fatalf("adding to cart: %v", err)
	}
}

func (s *store) stock(t *testing.T, p *catalogdomain.Product) int {
	t.Helper()
	got, err := s.products.FindByID(context.Background(), p.ID())
	if err != nil {
		t.Fatalf("finding product: %v", err)
	}
	return got.Stock()
}

func (s *store) setPrice(t *testing.T, p *catalogdomain.Product, price string) {
	t.Helper()
	if err := p.UpdateDetails(p.Name(), p.Description(), p.Category(), types.USD(price), true); err != nil {
		t.Fatalf("updating product: %v", err)
	}
	if err := s.products.Update(context.Background(), p); err != nil {
		t.Fatalf("saving product: %v", err)
	}
}

func (s *store) checkout() *commands.CheckoutHandler {
	return commands.NewCheckoutHandler(s.orders, s.cartSrc, s.ledger, domain.NewNumberGenerator(nil, nil),
		s.txScope, s.registry, s.published, nil, s.logger)
}

func (s *store) cancel() *commands.CancelOrderHandler {
	return commands.NewCancelOrderHandler(s.orders, s.ledger, s.txScope, s.registry, s.published, nil, s.logger)
}

func (s *store) updateStatus() *commands.UpdateStatusHandler {
	return commands.NewUpdateStatusHandler(s.orders, s.ledger, s.txScope, s.registry, s.published, nil, s.logger)
}

func (s *store) cartUnits(t *testing.T, userID types.UserID) int {
	t.Helper()
	c, err := s.carts.FindByUserID(context.Background(), userID)
	if err != nil {
		return 0
	}
	return c.ItemCount()
}

// --- Checkout ---

func TestCheckoutHandler_PlacesOrder(t *testing.T) {
	s := newStore()
	shirt := s.product(t, "Shirt", "29.99", 5)
	hat := s.product(t, "Cap", "15.00", 1)
	userID := types.NewUserID()
	s.addToCart(t, userID, shirt, 2)
	s.addToCart(t, userID, hat, 1)

	order, err := s.checkout().Handle(context.Background(), commands.CheckoutCommand{
		UserID: userID, ShippingAddress: "1 Main St", PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.Status != domain.StatusPending.String() || order.StatusLabel != "Pending" {
		t.Errorf("expected pending order, got %s", order.Status)
	}
	if order.Subtotal != "74.98" || order.Tax != "6.00" || order.ShippingFee != "10.00" || order.Total != "90.98" {
		t.Errorf("unexpected totals %+v", order)
	}
	if _, err := domain.ParseOrderNumber(order.Number); err != nil {
		t.Errorf("unexpected order number %q", order.Number)
	}
	if got := s.stock(t, shirt); got != 3 {
		t.Errorf("expected shirt stock 3, got %d", got)
	}
	if got := s.stock(t, hat); got != 0 {
		t.Errorf("expected cap stock 0, got %d", got)
	}
	if n := s.cartUnits(t, userID); n != 0 {
		t.Errorf("expected cart to be cleared, got %d units", n)
	}
	if got := s.published.eventTypes(); len(got) != 1 || got[0] != domain.OrderPlacedEventType {
		t.Errorf("expected one OrderPlaced event after commit, got %v", got)
	}
}

func TestCheckoutHandler_EmptyCart(t *testing.T) {
	s := newStore()
	_, err := s.checkout().Handle(context.Background(), commands.CheckoutCommand{UserID: types.NewUserID()})
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckoutHandler_IsAtomic(t *testing.T) {
	s := newStore()
	plenty := s.product(t, "Plenty", "10.00", 10)
	scarce := s.product(t, "Scarce", "10.00", 2)
	userID := types.NewUserID()
	s.addToCart(t, userID, plenty, 3)
	s.addToCart(t, userID, scarce, 2)

	// Someone else takes the scarce stock after it was added to the cart.
	if err := s.ledger.Reserve(context.Background(), scarce.ID(), 1); err != nil {
		t.Fatalf("reserving: %v", err)
	}

	_, err := s.checkout().Handle(context.Background(), commands.CheckoutCommand{UserID: userID})
	var unavailable *types.ProductUnavailableError
	if !errors.As(err, &unavailable) || unavailable.ProductID != scarce.ID().String() {
		t.Fatalf("expected ProductUnavailableError for the scarce product, got %v", err)
	}

	if got := s.stock(t, plenty); got != 10 {
		t.Errorf("expected the first reservation to be rolled back, stock is %d", got)
	}
	if got := s.stock(t, scarce); got != 1 {
		t.Errorf("expected scarce stock 1, got %d", got)
	}
	if n := s.cartUnits(t, userID); n != 5 {
		t.Errorf("expected cart untouched with 5 units, got %d", n)
	}
	if n, _ := s.orders.CountByUserID(context.Background(), userID); n != 0 {
		t.Errorf("expected no order, got %d", n)
	}
	if len(s.published.eventTypes()) != 0 {
		t.Error("expected no events from a failed checkout")
	}
}

func TestCheckoutHandler_FreezesPrices(t *testing.T) {
	s := newStore()
	p := s.product(t, "Lamp", "40.00", 5)
	userID := types.NewUserID()
	s.addToCart(t, userID, p, 1)

	placed, err := s.checkout().Handle(context.Background(), commands.CheckoutCommand{UserID: userID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.setPrice(t, p, "55.00")

	number, _ := domain.ParseOrderNumber(placed.Number)
	order, err := s.orders.FindByNumber(context.Background(), number)
	if err != nil {
		t.Fatalf("finding order: %v", err)
	}
	if got := order.Items()[0].UnitPrice.StringFixed(); got != "40.00" {
		t.Errorf("expected unit price 40.00, got %s", got)
	}
	if got := order.Totals().Subtotal.StringFixed(); got != "40.00" {
		t.Errorf("expected subtotal 40.00, got %s", got)
	}
}

func TestCheckoutHandler_NumberRetryIsBounded(t *testing.T) {
	s := newStore()
	p := s.product(t, "Pen", "1.00", 10)
	first, second := types.NewUserID(), types.NewUserID()
	s.addToCart(t, first, p, 1)
	s.addToCart(t, second, p, 1)

	at := time.Date(2023, 12, 15, 14, 30, 22, 0, time.UTC)
	fixed := domain.NewNumberGenerator(func() time.Time { return at }, func(int) int { return 42 })
	h := commands.NewCheckoutHandler(s.orders, s.cartSrc, s.ledger, fixed, s.txScope, s.registry, s.published, nil, s.logger)

	if _, err := h.Handle(context.Background(), commands.CheckoutCommand{UserID: first}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Same clock, same suffix: every attempt collides.
	_, err := h.Handle(context.Background(), commands.CheckoutCommand{UserID: second})
	if !errors.Is(err, domain.ErrOrderCreationFailed) {
		t.Errorf("expected ErrOrderCreationFailed, got %v", err)
	}
	if got := s.stock(t, p); got != 9 {
		t.Errorf("expected only the first order's stock to be taken, got %d", got)
	}
}

func TestCheckoutHandler_NoOversellUnderConcurrency(t *testing.T) {
	s := newStore()
	p := s.product(t, "Limited", "5.00", 3)

	const buyers = 10
	users := make([]types.UserID, buyers)
	for i := range users {
		users[i] = types.NewUserID()
		s.addToCart(t, users[i], p, 1)
	}

	h := s.checkout()
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for _, u := range users {
		wg.Add(1)
		go func(u types.UserID) {
			defer wg.Done()
			if _, err := h.Handle(context.Background(), commands.CheckoutCommand{UserID: u}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, types.ErrProductUnavailable) {
				t.Errorf("unexpected error: %v", err)
			}
		}(u)
	}
	wg.Wait()

	if succeeded != 3 {
		t.Errorf("expected exactly 3 successful checkouts, got %d", succeeded)
	}
	if got := s.stock(t, p); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
}

// --- Cancellation and status changes ---

func placeOrder(t *testing.T, s *store, userID types.UserID, p *catalogdomain.Product, qty int) string {
	t.Helper()
	s.addToCart(t, userID, p, qty)
	order, err := s.checkout().Handle(context.Background(), commands.CheckoutCommand{UserID: userID})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return order.Number
}

func TestCancelOrderHandler_RestoresStock(t *testing.T) {
	s := newStore()
	p := s.product(t, "Boots", "80.00", 4)
	userID := types.NewUserID()
	number := placeOrder(t, s, userID, p, 3)

	err := s.cancel().Handle(context.Background(), commands.CancelOrderCommand{UserID: types.NewUserID(), OrderNumber: number})
	if !errors.Is(err, types.ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if got := s.stock(t, p); got != 1 {
		t.Errorf("rejected cancel must not release stock, got %d", got)
	}

	if err := s.cancel().Handle(context.Background(), commands.CancelOrderCommand{UserID: userID, OrderNumber: number}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.stock(t, p); got != 4 {
		t.Errorf("expected stock restored to 4, got %d", got)
	}

	err = s.cancel().Handle(context.Background(), commands.CancelOrderCommand{UserID: userID, OrderNumber: number})
	if !errors.Is(err, domain.ErrNotCancellable) {
		t.Errorf("expected ErrNotCancellable on second cancel, got %v", err)
	}
	if got := s.stock(t, p); got != 4 {
		t.Errorf("stock must be released once, got %d", got)
	}
}

func TestCancelOrderHandler_ShippedIsNotCancellable(t *testing.T) {
	s := newStore()
	p := s.product(t, "Desk", "120.00", 2)
	userID := types.NewUserID()
	number := placeOrder(t, s, userID, p, 1)
	parsed, _ := domain.ParseOrderNumber(number)
	order, _ := s.orders.FindByNumber(context.Background(), parsed)

	for _, to := range []string{"CONFIRMED", "SHIPPED"} {
		if err := s.updateStatus().Handle(context.Background(), commands.UpdateStatusCommand{OrderID: order.ID().String(), Status: to}); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}

	err := s.cancel().Handle(context.Background(), commands.CancelOrderCommand{UserID: userID, OrderNumber: number})
	if !errors.Is(err, domain.ErrNotCancellable) {
		t.Errorf("expected ErrNotCancellable, got %v", err)
	}
	if got := s.stock(t, p); got != 1 {
		t.Errorf("expected stock to stay reserved, got %d", got)
	}
}

func TestUpdateStatusHandler(t *testing.T) {
	s := newStore()
	p := s.product(t, "Chair", "60.00", 5)
	userID := types.NewUserID()
	number := placeOrder(t, s, userID, p, 2)
	parsed, _ := domain.ParseOrderNumber(number)
	order, _ := s.orders.FindByNumber(context.Background(), parsed)
	id := order.ID().String()
	h := s.updateStatus()
	ctx := context.Background()

	if err := h.Handle(ctx, commands.UpdateStatusCommand{OrderID: id, Status: "LOST"}); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
	err := h.Handle(ctx, commands.UpdateStatusCommand{OrderID: id, Status: "DELIVERED"})
	var te *domain.StatusTransitionError
	if !errors.As(err, &te) || te.From != domain.StatusPending {
		t.Errorf("expected PENDING -> DELIVERED to be rejected, got %v", err)
	}

	// An administrative cancel releases stock like a customer cancel.
	if err := h.Handle(ctx, commands.UpdateStatusCommand{OrderID: id, Status: "cancelled"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.stock(t, p); got != 5 {
		t.Errorf("expected stock restored to 5, got %d", got)
	}
	if err := h.Handle(ctx, commands.UpdateStatusCommand{OrderID: id, Status: "CONFIRMED"}); !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Errorf("expected cancelled to be terminal, got %v", err)
	}
}

// --- Failure paths ---

// flakyInventory delegates to the ledger but fails the failAt-th Release.
type flakyInventory struct {
	domain.Inventory
	failAt   int
	releases int
}

func (f *flakyInventory) Release(ctx context.Context, id types.ProductID, quantity int) error {
	f.releases++
	if f.releases == f.failAt {
		return errors.New("release failed")
	}
	return f.Inventory.Release(ctx, id, quantity)
}

func twoLineOrder(t *testing.T, s *store) (userID types.UserID, number string, a, b *catalogdomain.Product) {
	t.Helper()
	a = s.product(t, "Socks", "5.00", 4)
	b = s.product(t, "Scarf", "20.00", 5)
	userID = types.NewUserID()
	s.addToCart(t, userID, a, 2)
	s.addToCart(t, userID, b, 2)
	order, err := s.checkout().Handle(context.Background(), commands.CheckoutCommand{UserID: userID})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return userID, order.Number, a, b
}

func (s *store) orderStatus(t *testing.T, number string) domain.Status {
	t.Helper()
	parsed, _ := domain.ParseOrderNumber(number)
	order, err := s.orders.FindByNumber(context.Background(), parsed)
	if err != nil {
		t.Fatalf("finding order: %v", err)
	}
	return order.Status()
}

func TestCancelOrderHandler_ReleaseFailureLeavesOrderUnchanged(t *testing.T) {
	s := newStore()
	userID, number, a, b := twoLineOrder(t, s)

	inv := &flakyInventory{Inventory: s.ledger, failAt: 2}
	h := commands.NewCancelOrderHandler(s.orders, inv, s.txScope, s.registry, s.published, nil, s.logger)

	err := h.Handle(context.Background(), commands.CancelOrderCommand{UserID: userID, OrderNumber: number})
	if err == nil {
		t.Fatal("expected the cancel to fail")
	}
	if got := s.orderStatus(t, number); got != domain.StatusPending {
		t.Errorf("expected order to stay PENDING, got %s", got)
	}
	if got := s.stock(t, a); got != 2 {
		t.Errorf("expected the first release to be rolled back, stock is %d", got)
	}
	if got := s.stock(t, b); got != 3 {
		t.Errorf("expected scarf stock 3, got %d", got)
	}
}

func TestUpdateStatusHandler_CancelReleaseFailureLeavesOrderUnchanged(t *testing.T) {
	s := newStore()
	_, number, a, b := twoLineOrder(t, s)
	parsed, _ := domain.ParseOrderNumber(number)
	order, _ := s.orders.FindByNumber(context.Background(), parsed)

	inv := &flakyInventory{Inventory: s.ledger, failAt: 2}
	h := commands.NewUpdateStatusHandler(s.orders, inv, s.txScope, s.registry, s.published, nil, s.logger)

	err := h.Handle(context.Background(), commands.UpdateStatusCommand{OrderID: order.ID().String(), Status: "CANCELLED"})
	if err == nil {
		t.Fatal("expected the transition to fail")
	}
	if got := s.orderStatus(t, number); got != domain.StatusPending {
		t.Errorf("expected order to stay PENDING, got %s", got)
	}
	if got := s.stock(t, a); got != 2 {
		t.Errorf("expected socks stock 2, got %d", got)
	}
	if got := s.stock(t, b); got != 3 {
		t.Errorf("expected scarf stock 3, got %d", got)
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, evts ...events.Event) error {
	return errors.New("broker unavailable")
}

func TestCheckoutHandler_PublishFailureIsLogged(t *testing.T) {
	s := newStore()
	p := s.product(t, "Kettle", "30.00", 2)
	userID := types.NewUserID()
	s.addToCart(t, userID, p, 1)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	h := commands.NewCheckoutHandler(s.orders, s.cartSrc, s.ledger, domain.NewNumberGenerator(nil, nil),
		s.txScope, s.registry, failingPublisher{}, nil, logger)

	order, err := h.Handle(context.Background(), commands.CheckoutCommand{UserID: userID})
	if err != nil {
		t.Fatalf("a committed checkout must succeed, got %v", err)
	}
	out := logs.String()
	if !strings.Contains(out, "post-commit event publish failed") || !strings.Contains(out, order.Number) {
		t.Errorf("expected a warning naming the order, got %q", out)
	}
}
