package domain

import (
	"context"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// Create inserts the order with its items. A number collision returns
	// ErrDuplicateOrderNumber.
	Create(ctx context.Context, order *Order) error
	// Save persists status changes; items and totals are immutable.
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id types.OrderID) (*Order, error)
	FindByNumber(ctx context.Context, number OrderNumber) (*Order, error)
	ExistsByNumber(ctx context.Context, number OrderNumber) (bool, error)
	// FindByUserID returns the user's orders, newest first, with the total count.
	FindByUserID(ctx context.Context, userID types.UserID, offset, limit int) ([]*Order, int, error)
	CountByUserID(ctx context.Context, userID types.UserID) (int, error)
	// FindAll returns all orders, newest first. An empty status matches every status.
	FindAll(ctx context.Context, status Status, offset, limit int) ([]*Order, int, error)
}
