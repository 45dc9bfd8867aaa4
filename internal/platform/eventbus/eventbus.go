// Package eventbus provides in-process event delivery for inter-module communication.
// Integration events leave the process through the outbox relay (see platform/outbox).
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
)

// InMemoryEventBus delivers events after a transaction has committed.
// Handler failures are logged and never reach the publisher; by the time an
// event is published here the business change is already durable.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]events.Handler
	logger   *slog.Logger
}

func New(logger *slog.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		handlers: make(map[events.EventType][]events.Handler),
		logger:   logger,
	}
}

// Publish implements events.Publisher.
func (b *InMemoryEventBus) Publish(ctx context.Context, evts ...events.Event) error {
	for _, event := range evts {
		b.mu.RLock()
		handlers := b.handlers[event.EventType()]
		b.mu.RUnlock()

		b.logger.Debug("publishing event", slog.String("event_type", event.EventType().String()), slog.String("event_id", event.EventID()), slog.Int("handler_count", len(handlers)))

		var wg sync.WaitGroup
		for _, handler := range handlers {
			wg.Add(1)
			go func(h events.Handler) {
				defer wg.Done()
				if err := h.Handle(ctx, event); err != nil {
					b.logger.Error("event handler failed", slog.String("event_type", event.EventType().String()), slog.String("event_id", event.EventID()), slog.Any("error", err))
				}
			}(handler)
		}
		wg.Wait()
	}

	return nil
}

// Subscribe implements events.Subscriber.
func (b *InMemoryEventBus) Subscribe(eventType events.EventType, handler events.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Debug("subscribed to event", slog.String("event_type", eventType.String()))

	return nil
}

// Compile-time interface checks.
var (
	_ events.Publisher  = (*InMemoryEventBus)(nil)
	_ events.Subscriber = (*InMemoryEventBus)(nil)
)
