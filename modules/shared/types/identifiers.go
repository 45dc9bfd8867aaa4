// Package types provides shared value objects and type definitions
// used across multiple modules (Shared Kernel pattern).
package types

import (
	"github.com/google/uuid"
)

// UserID represents a unique identifier for a user.
// Users are owned by an external identity provider; the storefront only
// ever receives them already resolved by the API layer.
type UserID struct {
	value string
}

func NewUserID() UserID {
	return UserID{value: uuid.New().String()}
}

func ParseUserID(s string) (UserID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return UserID{}, ErrInvalidID
	}
	return UserID{value: s}, nil
}

func (id UserID) String() string { return id.value }
func (id UserID) IsZero() bool   { return id.value == "" }

// ProductID represents a unique identifier for a catalog product.
type ProductID struct {
	value string
}

func NewProductID() ProductID {
	return ProductID{value: uuid.New().String()}
}

func ParseProductID(s string) (ProductID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return ProductID{}, ErrInvalidID
	}
	return ProductID{value: s}, nil
}

func (id ProductID) String() string { return id.value }
func (id ProductID) IsZero() bool   { return id.value == "" }

// CartID represents a unique identifier for a shopping cart.
type CartID struct {
	value string
}

func NewCartID() CartID {
	return CartID{value: uuid.New().String()}
}

func ParseCartID(s string) (CartID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return CartID{}, ErrInvalidID
	}
	return CartID{value: s}, nil
}

func (id CartID) String() string { return id.value }
func (id CartID) IsZero() bool   { return id.value == "" }

// CartItemID represents a unique identifier for a cart line.
type CartItemID struct {
	value string
}

func NewCartItemID() CartItemID {
	return CartItemID{value: uuid.New().String()}
}

func ParseCartItemID(s string) (CartItemID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return CartItemID{}, ErrInvalidID
	}
	return CartItemID{value: s}, nil
}

func (id CartItemID) String() string { return id.value }
func (id CartItemID) IsZero() bool   { return id.value == "" }

// OrderID represents the internal identifier for an order.
// User-facing APIs address orders by their order number instead.
type OrderID struct {
	value string
}

func NewOrderID() OrderID {
	return OrderID{value: uuid.New().String()}
}

func ParseOrderID(s string) (OrderID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return OrderID{}, ErrInvalidID
	}
	return OrderID{value: s}, nil
}

func (id OrderID) String() string { return id.value }
func (id OrderID) IsZero() bool   { return id.value == "" }
