package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the catalog, cart and orders modules.
// Module specific errors wrap these so callers can match on either.
var (
	ErrInvalidID          = errors.New("invalid identifier format")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrNotFound           = errors.New("not found")
	ErrProductNotFound    = fmt.Errorf("product %w", ErrNotFound)
	ErrProductUnavailable = errors.New("product not available in requested quantity")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrNotOwner           = errors.New("resource does not belong to user")
)

// ProductUnavailableError names the product that could not be supplied.
type ProductUnavailableError struct {
	ProductID string
	Requested int
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s not available in requested quantity %d", e.ProductID, e.Requested)
}

func (e *ProductUnavailableError) Is(target error) bool {
	return target == ErrProductUnavailable
}
