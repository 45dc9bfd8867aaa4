package outbox_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/memstore"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/metrics"
	"github.com/rai/storefront-modularmonolith-go/internal/platform/outbox"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events/contracts"
)

type mockSink struct {
	sendFn func(ctx context.Context, recs []outbox.Record) error
}

func (m *mockSink) Send(ctx context.Context, recs []outbox.Record) error {
	return m.sendFn(ctx, recs)
}

func placedEvent(number string) contracts.OrderPlacedEvent {
	return contracts.OrderPlacedEvent{
		BaseEvent:   events.NewBaseEvent(contracts.OrderPlacedEventType, "order-1"),
		OrderNumber: number,
		Total:       "90.98",
		Currency:    "USD",
	}
}

func newRelay(store outbox.Store, sink outbox.Sink) *outbox.Relay {
	return outbox.NewRelay(store, sink, time.Second, metrics.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRecorder_RollbackDropsRecord(t *testing.T) {
	mem := memstore.New()
	store := outbox.NewMemoryStore(mem)
	recorder := outbox.NewRecorder(store)
	scope := memstore.NewTxScope(mem)

	err := scope.Execute(context.Background(), func(ctx context.Context) error {
		require.NoError(t, recorder.Handle(ctx, placedEvent("ORD-1")))
		return errors.New("checkout failed")
	})
	require.Error(t, err)

	pending, err := store.FetchPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRelay_SendsAndMarksRecords(t *testing.T) {
	mem := memstore.New()
	store := outbox.NewMemoryStore(mem)
	recorder := outbox.NewRecorder(store)
	ctx := context.Background()
	require.NoError(t, recorder.Handle(ctx, placedEvent("ORD-1")))
	require.NoError(t, recorder.Handle(ctx, placedEvent("ORD-2")))

	var sent []outbox.Record
	relay := newRelay(store, &mockSink{sendFn: func(ctx context.Context, recs []outbox.Record) error {
		sent = append(sent, recs...)
		return nil
	}})

	n, err := relay.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, sent, 2)
	assert.Equal(t, "orders.OrderPlaced", sent[0].EventType)
	assert.Equal(t, "order-1", sent[0].Key)
	assert.Contains(t, string(sent[0].Payload), `"order_number":"ORD-1"`)

	n, err = relay.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelay_SinkFailureKeepsRecordsPending(t *testing.T) {
	mem := memstore.New()
	store := outbox.NewMemoryStore(mem)
	ctx := context.Background()
	require.NoError(t, outbox.NewRecorder(store).Handle(ctx, placedEvent("ORD-1")))

	errBroker := errors.New("broker down")
	relay := newRelay(store, &mockSink{sendFn: func(ctx context.Context, recs []outbox.Record) error {
		return errBroker
	}})

	_, err := relay.RelayOnce(ctx)
	assert.ErrorIs(t, err, errBroker)

	pending, err := store.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
