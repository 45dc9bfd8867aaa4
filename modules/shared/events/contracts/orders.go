// Package contracts defines public event contracts for inter-module communication.
// Modules should import event types from here, NOT from other module's domain packages.
package contracts

import "github.com/rai/storefront-modularmonolith-go/modules/shared/events"

const (
	OrderPlacedEventType        events.EventType = "orders.OrderPlaced"
	OrderCancelledEventType     events.EventType = "orders.OrderCancelled"
	OrderStatusChangedEventType events.EventType = "orders.OrderStatusChanged"
)

// OrderLine is the integration view of a purchased line.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// OrderPlacedEvent is published once a checkout transaction has produced an order.
type OrderPlacedEvent struct {
	events.BaseEvent
	OrderNumber string      `json:"order_number"`
	UserID      string      `json:"user_id"`
	Total       string      `json:"total"`
	Currency    string      `json:"currency"`
	Lines       []OrderLine `json:"lines"`
}

// OrderCancelledEvent is published after a cancelled order's stock was released.
type OrderCancelledEvent struct {
	events.BaseEvent
	OrderNumber string      `json:"order_number"`
	UserID      string      `json:"user_id"`
	Lines       []OrderLine `json:"lines"`
}

type OrderStatusChangedEvent struct {
	events.BaseEvent
	OrderNumber string `json:"order_number"`
	UserID      string `json:"user_id"`
	From        string `json:"from"`
	To          string `json:"to"`
}
