package eventbus

import (
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
)

// ErrNilHandler is returned when subscribing a nil handler.
var ErrNilHandler = errors.New("eventbus: nil handler")

// HandlerRegistry is the lookup side used by TransactionalEventBus.
type HandlerRegistry interface {
	HandlersFor(eventType events.EventType) []events.Handler
}

// EventHandlerRegistry holds the in-transaction subscribers, e.g. the outbox
// recorder. Its handlers run inside the publishing command's transaction and
// must only touch the store through ctx.
type EventHandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]events.Handler
	logger   *slog.Logger
}

func NewEventHandlerRegistry(logger *slog.Logger) *EventHandlerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandlerRegistry{
		handlers: make(map[events.EventType][]events.Handler),
		logger:   logger,
	}
}

// Subscribe adds handler for eventType. Handlers run in subscription order.
func (r *EventHandlerRegistry) Subscribe(eventType events.EventType, handler events.Handler) error {
	return r.SubscribeAll(handler, eventType)
}

// SubscribeAll adds one handler for several event types at once.
func (r *EventHandlerRegistry) SubscribeAll(handler events.Handler, eventTypes ...events.EventType) error {
	if handler == nil {
		return ErrNilHandler
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range eventTypes {
		r.handlers[t] = append(r.handlers[t], handler)
		r.logger.Debug("in-transaction handler subscribed", slog.String("event_type", t.String()))
	}
	return nil
}

// HandlersFor returns a snapshot of the handlers for eventType.
func (r *EventHandlerRegistry) HandlersFor(eventType events.EventType) []events.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.handlers[eventType])
}

var (
	_ events.Subscriber = (*EventHandlerRegistry)(nil)
	_ HandlerRegistry   = (*EventHandlerRegistry)(nil)
)
