package domain

import (
	"errors"
	"fmt"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

var (
	ErrCartNotFound     = fmt.Errorf("cart %w", types.ErrNotFound)
	ErrCartItemNotFound = fmt.Errorf("cart item %w", types.ErrNotFound)
	ErrInvalidQuantity  = types.ErrInvalidQuantity
	// ErrCartConflict means another request created the user's cart first.
	ErrCartConflict = errors.New("cart already exists for user")
)
