// Package domain contains the shopping cart aggregate.
package domain

import (
	"time"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// CartItem is one line of a cart. A cart holds at most one item per
// (product, size) pair.
type CartItem struct {
	ID        types.CartItemID
	ProductID types.ProductID
	Quantity  int
	Size      string
	AddedAt   time.Time
}

// Cart is the per-user shopping cart. It is created lazily and emptied,
// never deleted, on checkout.
type Cart struct {
	id        types.CartID
	userID    types.UserID
	items     []CartItem
	createdAt time.Time
	updatedAt time.Time
}

func NewCart(userID types.UserID) *Cart {
	now := time.Now().UTC()
	return &Cart{
		id:        types.NewCartID(),
		userID:    userID,
		items:     make([]CartItem, 0),
		createdAt: now,
		updatedAt: now,
	}
}

// Reconstitute rebuilds a cart from persistence.
func Reconstitute(id types.CartID, userID types.UserID, items []CartItem, createdAt, updatedAt time.Time) *Cart {
	return &Cart{
		id:        id,
		userID:    userID,
		items:     items,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (c *Cart) ID() types.CartID              { return c.id }
func (c *Cart) UserID() types.UserID          { return c.userID }
func (c *Cart) CreatedAt() time.Time          { return c.createdAt }
func (c *Cart) UpdatedAt() time.Time          { return c.updatedAt }
func (c *Cart) IsEmpty() bool                 { return len(c.items) == 0 }
func (c *Cart) BelongsTo(u types.UserID) bool { return c.userID == u }

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// ItemCount is the total number of units across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// QuantityAfterAdd returns the quantity the (product, size) line would hold
// after adding quantity more units.
func (c *Cart) QuantityAfterAdd(productID types.ProductID, size string, quantity int) int {
	if i := c.indexOf(productID, size); i >= 0 {
		return c.items[i].Quantity + quantity
	}
	return quantity
}

// AddItem merges into the existing (product, size) line or appends a new one.
func (c *Cart) AddItem(productID types.ProductID, quantity int, size string) (CartItem, error) {
	if quantity <= 0 {
		return CartItem{}, ErrInvalidQuantity
	}
	c.updatedAt = time.Now().UTC()

	if i := c.indexOf(productID, size); i >= 0 {
		c.items[i].Quantity += quantity
		return c.items[i], nil
	}

	item := CartItem{
		ID:        types.NewCartItemID(),
		ProductID: productID,
		Quantity:  quantity,
		Size:      size,
		AddedAt:   c.updatedAt,
	}
	c.items = append(c.items, item)
	return item, nil
}

// Item looks a line up by ID.
func (c *Cart) Item(itemID types.CartItemID) (CartItem, error) {
	for _, it := range c.items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return CartItem{}, ErrCartItemNotFound
}

// SetQuantity sets a line's absolute quantity. Zero removes the line.
func (c *Cart) SetQuantity(itemID types.CartItemID, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return c.RemoveItem(itemID)
	}
	for i := range c.items {
		if c.items[i].ID == itemID {
			c.items[i].Quantity = quantity
			c.updatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrCartItemNotFound
}

func (c *Cart) RemoveItem(itemID types.CartItemID) error {
	for i, it := range c.items {
		if it.ID == itemID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			c.updatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrCartItemNotFound
}

// Clear removes every line. Clearing an empty cart is a no-op.
func (c *Cart) Clear() {
	if len(c.items) == 0 {
		return
	}
	c.items = c.items[:0]
	c.updatedAt = time.Now().UTC()
}

func (c *Cart) indexOf(productID types.ProductID, size string) int {
	for i, it := range c.items {
		if it.ProductID == productID && it.Size == size {
			return i
		}
	}
	return -1
}
