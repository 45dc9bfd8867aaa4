package domain

import (
	"errors"
	"fmt"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

var (
	ErrOrderNotFound           = fmt.Errorf("order %w", types.ErrNotFound)
	ErrEmptyCart               = errors.New("cart is empty")
	ErrNotCancellable          = errors.New("order cannot be cancelled in its current status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrInvalidStatus           = errors.New("invalid order status")
	ErrInvalidOrderNumber      = fmt.Errorf("invalid order number: %w", types.ErrInvalidID)
	ErrOrderCreationFailed     = errors.New("failed to create order")
	ErrDuplicateOrderNumber    = errors.New("order number already exists")
)

// StatusTransitionError reports a transition the state machine does not allow.
type StatusTransitionError struct {
	From Status
	To   Status
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition from %s to %s", e.From, e.To)
}

func (e *StatusTransitionError) Is(target error) bool {
	return target == ErrInvalidStatusTransition
}
