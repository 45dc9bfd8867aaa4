package domain_test

import (
	"errors"
	"testing"

	"github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events/contracts"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

func TestNewProduct(t *testing.T) {
	p, err := domain.NewProduct("  Trail Runner ", "Lightweight shoe", "shoes", types.USD("29.99"), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.ID().IsZero() {
		t.Error("expected product to have an ID")
	}
	if p.Name() != "Trail Runner" {
		t.Errorf("expected trimmed name, got %q", p.Name())
	}
	if !p.Active() {
		t.Error("expected new product to be active")
	}

	evts := p.PopDomainEvents()
	if len(evts) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evts))
	}
	changed, ok := evts[0].(contracts.ProductChangedEvent)
	if !ok {
		t.Fatalf("expected ProductChangedEvent, got %T", evts[0])
	}
	if changed.Price != "29.99" || changed.Stock != 5 {
		t.Errorf("unexpected event payload: %+v", changed)
	}
}

func TestNewProduct_Validation(t *testing.T) {
	if _, err := domain.NewProduct("", "", "", types.USD("1.00"), 0); !errors.Is(err, domain.ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
	if _, err := domain.NewProduct("Hat", "", "", types.USD("-1.00"), 0); !errors.Is(err, domain.ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := domain.NewProduct("Hat", "", "", types.USD("1.00"), -1); !errors.Is(err, domain.ErrNegativeStock) {
		t.Errorf("expected ErrNegativeStock, got %v", err)
	}
}

func TestProduct_CanSupply(t *testing.T) {
	p, _ := domain.NewProduct("Hat", "", "", types.USD("10.00"), 3)

	if !p.CanSupply(3) {
		t.Error("expected 3 units to be available")
	}
	if p.CanSupply(4) {
		t.Error("expected 4 units to be unavailable")
	}

	if err := p.UpdateDetails("Hat", "", "", types.USD("10.00"), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CanSupply(1) {
		t.Error("expected inactive product to supply nothing")
	}
}

func TestProduct_SetStock(t *testing.T) {
	p, _ := domain.NewProduct("Hat", "", "", types.USD("10.00"), 3)
	p.PopDomainEvents()

	if err := p.SetStock(-1); !errors.Is(err, domain.ErrNegativeStock) {
		t.Errorf("expected ErrNegativeStock, got %v", err)
	}
	if err := p.SetStock(12); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Stock() != 12 {
		t.Errorf("expected stock 12, got %d", p.Stock())
	}
	if n := len(p.PopDomainEvents()); n != 1 {
		t.Errorf("expected 1 event, got %d", n)
	}
}
