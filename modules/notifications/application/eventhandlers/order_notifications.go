package eventhandlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events/contracts"
)

// Sender delivers a customer notification. The default implementation only
// logs; a mail or push provider plugs in here.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

type Notification struct {
	UserID      string
	Template    string
	OrderNumber string
	Fields      map[string]string
}

// OrderNotifier tells customers about their orders.
//
// It performs external side effects and MUST NOT run within a database
// transaction, so it is subscribed on the post-commit bus only.
// TODO: deduplicate on event ID once events are redelivered from the outbox.
type OrderNotifier struct {
	sender Sender
	logger *slog.Logger
}

func NewOrderNotifier(sender Sender, logger *slog.Logger) *OrderNotifier {
	return &OrderNotifier{sender: sender, logger: logger}
}

func (h *OrderNotifier) Handle(ctx context.Context, event events.Event) error {
	var n Notification
	switch e := event.(type) {
	case contracts.OrderPlacedEvent:
		n = Notification{
			UserID:      e.UserID,
			Template:    "order_confirmation",
			OrderNumber: e.OrderNumber,
			Fields:      map[string]string{"total": e.Total, "currency": e.Currency},
		}
	case contracts.OrderCancelledEvent:
		n = Notification{
			UserID:      e.UserID,
			Template:    "order_cancelled",
			OrderNumber: e.OrderNumber,
		}
	case contracts.OrderStatusChangedEvent:
		if e.To != "SHIPPED" && e.To != "DELIVERED" {
			return nil
		}
		n = Notification{
			UserID:      e.UserID,
			Template:    "order_" + strings.ToLower(e.To),
			OrderNumber: e.OrderNumber,
		}
	default:
		return nil
	}

	if err := h.sender.Send(ctx, n); err != nil {
		h.logger.Warn("notification failed",
			slog.String("template", n.Template),
			slog.String("order_number", n.OrderNumber),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, n Notification) error {
	attrs := []any{
		slog.String("template", n.Template),
		slog.String("order_number", n.OrderNumber),
		slog.String("user_id", n.UserID),
	}
	for k, v := range n.Fields {
		attrs = append(attrs, slog.String(k, v))
	}
	s.logger.InfoContext(ctx, "sending notification", attrs...)
	return nil
}
