package eventbus_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/eventbus"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
)

const (
	typeA events.EventType = "test.A"
	typeB events.EventType = "test.B"
)

type testEvent struct {
	events.BaseEvent
}

func newEvent(t events.EventType) testEvent {
	return testEvent{BaseEvent: events.NewBaseEvent(t, "agg-1")}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInMemoryEventBus_DeliversToAllSubscribers(t *testing.T) {
	bus := eventbus.New(discardLogger())
	var calls atomic.Int32
	h := events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, bus.Subscribe(typeA, h))
	require.NoError(t, bus.Subscribe(typeA, h))
	require.NoError(t, bus.Subscribe(typeB, h))

	require.NoError(t, bus.Publish(context.Background(), newEvent(typeA)))

	assert.Equal(t, int32(2), calls.Load())
}

func TestInMemoryEventBus_HandlerErrorIsNotReturned(t *testing.T) {
	bus := eventbus.New(discardLogger())
	var okCalled atomic.Bool
	require.NoError(t, bus.Subscribe(typeA, events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		return errors.New("boom")
	})))
	require.NoError(t, bus.Subscribe(typeA, events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		okCalled.Store(true)
		return nil
	})))

	err := bus.Publish(context.Background(), newEvent(typeA))

	assert.NoError(t, err)
	assert.True(t, okCalled.Load())
}

func TestTransactionalEventBus_FlushRunsHandlersAndNestedEvents(t *testing.T) {
	registry := eventbus.NewEventHandlerRegistry(discardLogger())
	bus := eventbus.NewTransactional(registry, 10)

	var seen []events.EventType
	require.NoError(t, registry.Subscribe(typeA, events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		seen = append(seen, e.EventType())
		return bus.Publish(ctx, newEvent(typeB))
	})))
	require.NoError(t, registry.Subscribe(typeB, events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		seen = append(seen, e.EventType())
		return nil
	})))

	require.NoError(t, bus.Publish(context.Background(), newEvent(typeA)))
	require.NoError(t, bus.Flush(context.Background()))

	assert.Equal(t, []events.EventType{typeA, typeB}, seen)
	assert.Equal(t, 0, bus.PendingCount())
	assert.Len(t, bus.Published(), 2)
}

func TestTransactionalEventBus_HandlerErrorAbortsFlush(t *testing.T) {
	registry := eventbus.NewEventHandlerRegistry(discardLogger())
	bus := eventbus.NewTransactional(registry, 10)
	errHandler := errors.New("handler failed")
	require.NoError(t, registry.Subscribe(typeA, events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		return errHandler
	})))

	require.NoError(t, bus.Publish(context.Background(), newEvent(typeA)))
	err := bus.Flush(context.Background())

	assert.ErrorIs(t, err, errHandler)
}

func TestTransactionalEventBus_DepthGuard(t *testing.T) {
	registry := eventbus.NewEventHandlerRegistry(discardLogger())
	bus := eventbus.NewTransactional(registry, 3)
	require.NoError(t, registry.Subscribe(typeA, events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		return bus.Publish(ctx, newEvent(typeA))
	})))

	require.NoError(t, bus.Publish(context.Background(), newEvent(typeA)))
	err := bus.Flush(context.Background())

	assert.ErrorIs(t, err, eventbus.ErrEventProcessingDepthExceeded)
}

func TestEventHandlerRegistry_SubscribeAll(t *testing.T) {
	registry := eventbus.NewEventHandlerRegistry(discardLogger())
	recorder := events.HandlerFunc(func(ctx context.Context, e events.Event) error { return nil })

	require.NoError(t, registry.SubscribeAll(recorder, typeA, typeB))

	assert.Len(t, registry.HandlersFor(typeA), 1)
	assert.Len(t, registry.HandlersFor(typeB), 1)
	assert.Empty(t, registry.HandlersFor("test.C"))
}

func TestEventHandlerRegistry_RejectsNilHandler(t *testing.T) {
	registry := eventbus.NewEventHandlerRegistry(discardLogger())

	err := registry.Subscribe(typeA, nil)

	assert.ErrorIs(t, err, eventbus.ErrNilHandler)
	assert.Empty(t, registry.HandlersFor(typeA))
}

func TestEventHandlerRegistry_HandlersForReturnsSnapshot(t *testing.T) {
	registry := eventbus.NewEventHandlerRegistry(discardLogger())
	noop := events.HandlerFunc(func(ctx context.Context, e events.Event) error { return nil })
	require.NoError(t, registry.Subscribe(typeA, noop))

	snapshot := registry.HandlersFor(typeA)
	require.NoError(t, registry.Subscribe(typeA, noop))

	assert.Len(t, snapshot, 1)
	assert.Len(t, registry.HandlersFor(typeA), 2)
}
