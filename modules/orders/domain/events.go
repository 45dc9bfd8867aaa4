package domain

import (
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events/contracts"
)

const (
	OrderPlacedEventType        = contracts.OrderPlacedEventType
	OrderCancelledEventType     = contracts.OrderCancelledEventType
	OrderStatusChangedEventType = contracts.OrderStatusChangedEventType
)

func NewOrderPlacedEvent(o *Order) contracts.OrderPlacedEvent {
	return contracts.OrderPlacedEvent{
		BaseEvent:   events.NewBaseEvent(OrderPlacedEventType, o.ID().String()),
		OrderNumber: o.Number().String(),
		UserID:      o.UserID().String(),
		Total:       o.Totals().Total.StringFixed(),
		Currency:    o.Totals().Total.Currency(),
		Lines:       contractLines(o),
	}
}

func NewOrderCancelledEvent(o *Order) contracts.OrderCancelledEvent {
	return contracts.OrderCancelledEvent{
		BaseEvent:   events.NewBaseEvent(OrderCancelledEventType, o.ID().String()),
		OrderNumber: o.Number().String(),
		UserID:      o.UserID().String(),
		Lines:       contractLines(o),
	}
}

func NewOrderStatusChangedEvent(o *Order, from, to Status) contracts.OrderStatusChangedEvent {
	return contracts.OrderStatusChangedEvent{
		BaseEvent:   events.NewBaseEvent(OrderStatusChangedEventType, o.ID().String()),
		OrderNumber: o.Number().String(),
		UserID:      o.UserID().String(),
		From:        from.String(),
		To:          to.String(),
	}
}

func contractLines(o *Order) []contracts.OrderLine {
	lines := make([]contracts.OrderLine, 0, len(o.items))
	for _, it := range o.items {
		lines = append(lines, contracts.OrderLine{
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(),
		})
	}
	return lines
}
