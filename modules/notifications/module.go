package notifications

import (
	"log/slog"

	"github.com/rai/storefront-modularmonolith-go/modules/notifications/application/eventhandlers"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events/contracts"
)

// Module represents the notification module entry point.
type Module struct{}

type Config struct {
	EventSubscriber events.Subscriber
	// Sender defaults to logging notifications.
	Sender eventhandlers.Sender
	Logger *slog.Logger
}

// New initializes the notification module and subscribes to order events.
func New(cfg Config) *Module {
	logger := cfg.Logger.With("module", "notifications")

	sender := cfg.Sender
	if sender == nil {
		sender = eventhandlers.NewLogSender(logger)
	}
	notifier := eventhandlers.NewOrderNotifier(sender, logger)

	for _, t := range []events.EventType{
		contracts.OrderPlacedEventType,
		contracts.OrderCancelledEventType,
		contracts.OrderStatusChangedEventType,
	} {
		if err := cfg.EventSubscriber.Subscribe(t, notifier); err != nil {
			logger.Error("failed to subscribe order notifier", slog.String("event_type", t.String()), slog.Any("error", err))
		}
	}

	return &Module{}
}
