// Package outbox records integration events in the same transaction as the
// business change that raised them, and relays them to the message broker
// after commit.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
)

// Record is one stored integration event.
type Record struct {
	ID        int64
	EventID   string
	EventType string
	Key       string
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}

// Store persists records. Insert must join the transaction carried by ctx.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	FetchPending(ctx context.Context, limit int) ([]Record, error)
	MarkSent(ctx context.Context, ids ...int64) error
}

// Recorder is an events.Handler that writes every event it receives to the
// outbox. Subscribe it on the in-transaction handler registry.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Handle implements events.Handler.
func (r *Recorder) Handle(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", event.EventType(), err)
	}
	rec := Record{
		EventID:   event.EventID(),
		EventType: event.EventType().String(),
		Key:       event.AggregateID(),
		Payload:   payload,
		CreatedAt: event.OccurredAt(),
	}
	if err := r.store.Insert(ctx, rec); err != nil {
		return fmt.Errorf("recording event %s: %w", event.EventType(), err)
	}
	return nil
}

var _ events.Handler = (*Recorder)(nil)
