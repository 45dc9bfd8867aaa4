// Package domain contains business entities and rules for orders.
package domain

import (
	"time"

	shareddomain "github.com/rai/storefront-modularmonolith-go/modules/shared/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/pricing"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// Order is the aggregate root for the order bounded context.
// Items and totals are fixed at checkout; later price changes never touch them.
type Order struct {
	shareddomain.AggregateRoot

	id              types.OrderID
	number          OrderNumber
	userID          types.UserID
	items           []OrderItem
	totals          pricing.Totals
	shippingAddress string
	paymentMethod   string
	status          Status
	createdAt       time.Time
	updatedAt       time.Time
}

// OrderItem is a purchased line with the price paid.
type OrderItem struct {
	ProductID   types.ProductID
	ProductName string
	Quantity    int
	Size        string
	UnitPrice   types.Money
}

func (i OrderItem) LineTotal() types.Money {
	return i.UnitPrice.Multiply(int64(i.Quantity))
}

// PlaceOrder creates a Pending order priced from items.
func PlaceOrder(number OrderNumber, userID types.UserID, items []OrderItem, shippingAddress, paymentMethod string) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	lines := make([]pricing.Line, len(items))
	for i, it := range items {
		if it.Quantity <= 0 {
			return nil, types.ErrInvalidQuantity
		}
		lines[i] = pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity}
	}

	now := time.Now().UTC()
	o := &Order{
		id:              types.NewOrderID(),
		number:          number,
		userID:          userID,
		items:           append([]OrderItem(nil), items...),
		totals:          pricing.Calculate(lines),
		shippingAddress: shippingAddress,
		paymentMethod:   paymentMethod,
		status:          StatusPending,
		createdAt:       now,
		updatedAt:       now,
	}
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return o, nil
}

// Reconstitute rebuilds an order from persistence.
func Reconstitute(
	id types.OrderID,
	number OrderNumber,
	userID types.UserID,
	items []OrderItem,
	totals pricing.Totals,
	shippingAddress, paymentMethod string,
	status Status,
	createdAt, updatedAt time.Time,
) *Order {
	return &Order{
		id:              id,
		number:          number,
		userID:          userID,
		items:           items,
		totals:          totals,
		shippingAddress: shippingAddress,
		paymentMethod:   paymentMethod,
		status:          status,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// Getters

func (o *Order) ID() types.OrderID                  { return o.id }
func (o *Order) Number() OrderNumber                { return o.number }
func (o *Order) UserID() types.UserID               { return o.userID }
func (o *Order) Items() []OrderItem                 { return append([]OrderItem(nil), o.items...) }
func (o *Order) Totals() pricing.Totals             { return o.totals }
func (o *Order) ShippingAddress() string            { return o.shippingAddress }
func (o *Order) PaymentMethod() string              { return o.paymentMethod }
func (o *Order) Status() Status                     { return o.status }
func (o *Order) CreatedAt() time.Time               { return o.createdAt }
func (o *Order) UpdatedAt() time.Time               { return o.updatedAt }
func (o *Order) BelongsTo(userID types.UserID) bool { return o.userID == userID }

// Business methods

// TransitionTo moves the order along the status state machine.
func (o *Order) TransitionTo(to Status) error {
	if !to.IsValid() {
		return ErrInvalidStatus
	}
	from := o.status
	if !from.CanTransitionTo(to) {
		return &StatusTransitionError{From: from, To: to}
	}

	o.status = to
	o.updatedAt = time.Now().UTC()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, to))
	if to == StatusCancelled {
		o.AddDomainEvent(NewOrderCancelledEvent(o))
	}
	return nil
}

// Cancel is the customer-initiated transition to Cancelled.
func (o *Order) Cancel() error {
	if !o.status.IsCancellable() {
		return ErrNotCancellable
	}
	return o.TransitionTo(StatusCancelled)
}
