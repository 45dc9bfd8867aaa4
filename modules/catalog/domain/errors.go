package domain

import (
	"errors"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

var (
	ErrProductNotFound   = types.ErrProductNotFound
	ErrInsufficientStock = types.ErrInsufficientStock
	ErrInvalidQuantity   = types.ErrInvalidQuantity
	ErrEmptyName         = errors.New("product name is required")
	ErrInvalidPrice      = errors.New("product price must be a non-negative amount")
	ErrNegativeStock     = errors.New("stock must not be negative")
	ErrEmptySearch       = errors.New("search text is required")
	ErrInvalidPriceRange = errors.New("price range must be non-negative with min not above max")
)
