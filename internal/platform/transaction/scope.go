// Package transaction provides transaction scope decorators shared by all store drivers.
package transaction

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/transaction"
)

const tracerName = "github.com/rai/storefront-modularmonolith-go/internal/platform/transaction"

// TracedScope wraps a transaction.Scope and records a span per Execute.
type TracedScope struct {
	next   transaction.Scope
	name   string
	driver string
	tracer trace.Tracer
}

// Traced decorates next with tracing. name becomes the span name
// (e.g. "orders.checkout") and driver is recorded as an attribute.
func Traced(next transaction.Scope, name, driver string) *TracedScope {
	return &TracedScope{
		next:   next,
		name:   name,
		driver: driver,
		tracer: otel.Tracer(tracerName),
	}
}

// Execute implements transaction.Scope.
func (s *TracedScope) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, s.name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("db.system", s.driver)),
	)
	defer span.End()

	attempts := 0
	err := s.next.Execute(ctx, func(ctx context.Context) error {
		attempts++
		return fn(ctx)
	})
	span.SetAttributes(attribute.Int("tx.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

var _ transaction.Scope = (*TracedScope)(nil)
