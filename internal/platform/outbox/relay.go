package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/metrics"
)

// Sink delivers records to the broker. A batch either succeeds as a whole or fails.
type Sink interface {
	Send(ctx context.Context, recs []Record) error
}

// KafkaSink publishes records to a single topic keyed by aggregate id, so
// events of one order keep their relative order within a partition.
type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (s *KafkaSink) Send(ctx context.Context, recs []Record) error {
	msgs := make([]kafka.Message, 0, len(recs))
	for _, rec := range recs {
		msgs = append(msgs, kafka.Message{
			Key:   []byte(rec.Key),
			Value: rec.Payload,
			Time:  rec.CreatedAt,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(rec.EventID)},
				{Key: "event_type", Value: []byte(rec.EventType)},
			},
		})
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("writing to kafka: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// Relay polls the outbox and forwards pending records to a Sink.
// Delivery is at-least-once: a crash between Send and MarkSent resends the batch.
type Relay struct {
	store     Store
	sink      Sink
	interval  time.Duration
	batchSize int
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewRelay(store Store, sink Sink, interval time.Duration, m *metrics.Metrics, logger *slog.Logger) *Relay {
	return &Relay{
		store:     store,
		sink:      sink,
		interval:  interval,
		batchSize: 100,
		metrics:   m,
		logger:    logger.With("component", "outbox-relay"),
	}
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", slog.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil {
				r.logger.Error("outbox relay failed", slog.Any("error", err))
			}
		}
	}
}

// RelayOnce forwards one batch and returns how many records were sent.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	recs, err := r.store.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetching pending records: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	err = r.sink.Send(ctx, recs)
	if r.metrics != nil {
		r.metrics.OutboxPublished.WithLabelValues(metrics.Result(err)).Add(float64(len(recs)))
	}
	if err != nil {
		return 0, err
	}

	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}
	if err := r.store.MarkSent(ctx, ids...); err != nil {
		return 0, fmt.Errorf("marking records sent: %w", err)
	}

	r.logger.Debug("relayed outbox records", slog.Int("count", len(recs)))
	return len(recs), nil
}
