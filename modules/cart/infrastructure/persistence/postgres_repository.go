package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/postgres"
	"github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// PostgresRepository stores carts in carts and cart_items. Save expects to
// run inside a transaction so the item replacement is atomic.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) FindByUserID(ctx context.Context, userID types.UserID) (*domain.Cart, error) {
	return r.load(ctx, `SELECT id::text, user_id::text, created_at, updated_at FROM carts WHERE user_id = $1`,
		userID.String(), domain.ErrCartNotFound)
}

func (r *PostgresRepository) FindByItemID(ctx context.Context, itemID types.CartItemID) (*domain.Cart, error) {
	return r.load(ctx,
		`SELECT c.id::text, c.user_id::text, c.created_at, c.updated_at
		   FROM carts c JOIN cart_items i ON i.cart_id = c.id
		  WHERE i.id = $1`,
		itemID.String(), domain.ErrCartItemNotFound)
}

func (r *PostgresRepository) load(ctx context.Context, query, arg string, notFound error) (*domain.Cart, error) {
	conn := postgres.Conn(ctx, r.pool)

	var row cartRow
	var id, userID string
	err := conn.QueryRow(ctx, query, arg).Scan(&id, &userID, &row.createdAt, &row.updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading cart: %w", err)
	}
	if row.id, err = types.ParseCartID(id); err != nil {
		return nil, err
	}
	if row.userID, err = types.ParseUserID(userID); err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx,
		`SELECT id::text, product_id::text, quantity, size, added_at
		   FROM cart_items WHERE cart_id = $1 ORDER BY added_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		var itemID, productID string
		if err := rows.Scan(&itemID, &productID, &item.Quantity, &item.Size, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("scanning cart item: %w", err)
		}
		if item.ID, err = types.ParseCartItemID(itemID); err != nil {
			return nil, err
		}
		if item.ProductID, err = types.ParseProductID(productID); err != nil {
			return nil, err
		}
		row.items = append(row.items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *PostgresRepository) Save(ctx context.Context, cart *domain.Cart) error {
	conn := postgres.Conn(ctx, r.pool)

	_, err := conn.Exec(ctx,
		`INSERT INTO carts (id, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET updated_at = EXCLUDED.updated_at`,
		cart.ID().String(), cart.UserID().String(), cart.CreatedAt(), cart.UpdatedAt())
	if postgres.IsUniqueViolation(err) {
		// carts.user_id is unique: a concurrent first add won the insert.
		return fmt.Errorf("upserting cart: %w", domain.ErrCartConflict)
	}
	if err != nil {
		return fmt.Errorf("upserting cart: %w", err)
	}

	if _, err := conn.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID().String()); err != nil {
		return fmt.Errorf("deleting cart items: %w", err)
	}

	items := cart.Items()
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(
			`INSERT INTO cart_items (id, cart_id, product_id, quantity, size, added_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			it.ID.String(), cart.ID().String(), it.ProductID.String(), it.Quantity, it.Size, it.AddedAt)
	}
	if err := conn.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting cart items: %w", err)
	}
	return nil
}

var _ domain.CartRepository = (*PostgresRepository)(nil)
