package domain_test

import (
	"errors"
	"testing"

	"github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

func TestCart_AddItemMergesSameProductAndSize(t *testing.T) {
	cart := domain.NewCart(types.NewUserID())
	productID := types.NewProductID()

	first, err := cart.AddItem(productID, 2, "M")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cart.QuantityAfterAdd(productID, "M", 3); got != 5 {
		t.Errorf("expected combined quantity 5, got %d", got)
	}
	second, err := cart.AddItem(productID, 3, "M")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := cart.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", items[0].Quantity)
	}
	if first.ID != second.ID {
		t.Error("expected merge to keep the original item ID")
	}
}

func TestCart_AddItemDifferentSizeIsSeparateLine(t *testing.T) {
	cart := domain.NewCart(types.NewUserID())
	productID := types.NewProductID()

	_, _ = cart.AddItem(productID, 1, "M")
	_, _ = cart.AddItem(productID, 1, "L")
	_, _ = cart.AddItem(productID, 1, "")

	if n := len(cart.Items()); n != 3 {
		t.Errorf("expected 3 items, got %d", n)
	}
	if n := cart.ItemCount(); n != 3 {
		t.Errorf("expected item count 3, got %d", n)
	}
}

func TestCart_AddItemRejectsNonPositiveQuantity(t *testing.T) {
	cart := domain.NewCart(types.NewUserID())

	for _, q := range []int{0, -2} {
		if _, err := cart.AddItem(types.NewProductID(), q, ""); !errors.Is(err, types.ErrInvalidQuantity) {
			t.Errorf("quantity %d: expected ErrInvalidQuantity, got %v", q, err)
		}
	}
	if !cart.IsEmpty() {
		t.Error("expected cart to stay empty")
	}
}

func TestCart_SetQuantity(t *testing.T) {
	cart := domain.NewCart(types.NewUserID())
	item, _ := cart.AddItem(types.NewProductID(), 2, "")

	if err := cart.SetQuantity(item.ID, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := cart.Item(item.ID); got.Quantity != 7 {
		t.Errorf("expected quantity 7, got %d", got.Quantity)
	}

	if err := cart.SetQuantity(item.ID, -1); !errors.Is(err, types.ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}

	if err := cart.SetQuantity(item.ID, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.IsEmpty() {
		t.Error("expected quantity 0 to remove the item")
	}

	if err := cart.SetQuantity(item.ID, 1); !errors.Is(err, domain.ErrCartItemNotFound) {
		t.Errorf("expected ErrCartItemNotFound, got %v", err)
	}
}

func TestCart_RemoveAndClear(t *testing.T) {
	cart := domain.NewCart(types.NewUserID())
	a, _ := cart.AddItem(types.NewProductID(), 1, "")
	_, _ = cart.AddItem(types.NewProductID(), 4, "")

	if err := cart.RemoveItem(a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cart.RemoveItem(a.ID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected not found on second removal, got %v", err)
	}
	if cart.ItemCount() != 4 {
		t.Errorf("expected item count 4, got %d", cart.ItemCount())
	}

	cart.Clear()
	cart.Clear()
	if !cart.IsEmpty() {
		t.Error("expected empty cart")
	}
}
