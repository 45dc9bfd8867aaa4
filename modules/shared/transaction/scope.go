package transaction

import "context"

// Scope runs a unit of work inside one storage transaction.
//
// Each store driver supplies its own: a Spanner read-write or read-only
// transaction, a pgx transaction, or the in-memory store lock with an undo
// log. The ctx passed to fn carries the transaction, and repositories join
// it from there. fn may be retried (Spanner aborts), so it must not perform
// external side effects.
type Scope interface {
	// Execute commits if fn returns nil and rolls back otherwise.
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

// ExecuteWithResult runs fn within scope and returns its result.
func ExecuteWithResult[T any](ctx context.Context, scope Scope, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := scope.Execute(ctx, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})
	return result, err
}

// ReadWithin runs fn inside scope when one is configured and directly
// otherwise. Read paths use it for optional snapshot scopes.
func ReadWithin[T any](ctx context.Context, scope Scope, fn func(ctx context.Context) (T, error)) (T, error) {
	if scope == nil {
		return fn(ctx)
	}
	return ExecuteWithResult(ctx, scope, fn)
}
