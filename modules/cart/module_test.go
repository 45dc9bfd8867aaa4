package cart_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/httpserver"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/memstore"
	"github.com/rai/storefront-modularmonolith-go/modules/cart"
	"github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/cart/infrastructure/persistence"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

type fixedCatalog struct {
	product domain.Product
	stock   int
}

func (c fixedCatalog) Product(ctx context.Context, id types.ProductID) (domain.Product, error) {
	if id != c.product.ID {
		return domain.Product{}, types.ErrProductNotFound
	}
	return c.product, nil
}

func (c fixedCatalog) IsAvailable(ctx context.Context, id types.ProductID, quantity int) (bool, error) {
	return quantity <= c.stock, nil
}

func newServer(t *testing.T, catalog domain.ProductCatalog) (cart.Module, http.Handler) {
	t.Helper()
	store := memstore.New()
	m := cart.New(cart.Config{
		Repository: persistence.NewInMemoryRepository(store),
		Catalog:    catalog,
		TxScope:    memstore.NewTxScope(store),
	})
	mux := http.NewServeMux()
	m.RegisterRoutes(mux)
	return m, httpserver.Middleware(mux, httpserver.Identity())
}

func do(h http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set(httpserver.UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCartRoutes(t *testing.T) {
	product := domain.Product{ID: types.NewProductID(), Name: "Mug", Price: types.USD("12.50")}
	m, h := newServer(t, fixedCatalog{product: product, stock: 3})
	user := types.NewUserID()

	if rec := do(h, http.MethodGet, "/cart", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without user, got %d", rec.Code)
	}

	body := `{"product_id":"` + product.ID.String() + `","quantity":2}`
	rec := do(h, http.MethodPost, "/cart/items", user.String(), body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var added struct {
		ItemID string `json:"item_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&added); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if rec := do(h, http.MethodPost, "/cart/items", user.String(), `{"product_id":"`+product.ID.String()+`","quantity":2}`); rec.Code != http.StatusConflict {
		t.Errorf("expected 409 when exceeding stock, got %d", rec.Code)
	}
	if rec := do(h, http.MethodPut, "/cart/items/"+added.ItemID, types.NewUserID().String(), `{"quantity":1}`); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for another user's item, got %d", rec.Code)
	}
	if rec := do(h, http.MethodPut, "/cart/items/"+added.ItemID, user.String(), `{"quantity":-1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative quantity, got %d", rec.Code)
	}

	rec = do(h, http.MethodGet, "/cart/count", user.String(), "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":2`) {
		t.Errorf("unexpected count response %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(h, http.MethodGet, "/cart/totals", user.String(), "")
	if !strings.Contains(rec.Body.String(), `"subtotal":"25.00"`) || !strings.Contains(rec.Body.String(), `"total":"37.00"`) {
		t.Errorf("unexpected totals: %s", rec.Body.String())
	}

	lines, err := m.Lines(context.Background(), user)
	if err != nil || len(lines) != 1 || lines[0].Product.Name != "Mug" {
		t.Errorf("unexpected lines %+v (%v)", lines, err)
	}

	if rec := do(h, http.MethodDelete, "/cart", user.String(), ""); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec := do(h, http.MethodDelete, "/cart/items/"+added.ItemID, user.String(), ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after clear, got %d", rec.Code)
	}
}
