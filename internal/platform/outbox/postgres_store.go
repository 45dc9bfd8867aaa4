package outbox

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/postgres"
)

// PostgresStore keeps the outbox in the storefront database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Insert(ctx context.Context, rec Record) error {
	_, err := postgres.Conn(ctx, s.pool).Exec(ctx,
		`INSERT INTO outbox (event_id, event_type, key, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.EventID, rec.EventType, rec.Key, []byte(rec.Payload), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting outbox record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FetchPending(ctx context.Context, limit int) ([]Record, error) {
	rows, err := postgres.Conn(ctx, s.pool).Query(ctx,
		`SELECT id, event_id, event_type, key, payload, created_at, sent_at
		   FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying outbox: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.EventType, &rec.Key, &payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, fmt.Errorf("scanning outbox record: %w", err)
		}
		rec.Payload = payload
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkSent(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := postgres.Conn(ctx, s.pool).Exec(ctx, `UPDATE outbox SET sent_at = now() WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("marking outbox records sent: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
