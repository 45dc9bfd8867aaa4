package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/postgres"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/pricing"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const orderColumns = `id::text, order_number, user_id::text, subtotal::text, tax::text, shipping_fee::text, total::text,
	currency, shipping_address, payment_method, status, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, order *domain.Order) error {
	conn := postgres.Conn(ctx, r.pool)
	t := order.Totals()

	_, err := conn.Exec(ctx,
		`INSERT INTO orders (id, order_number, user_id, subtotal, tax, shipping_fee, total, currency,
		                     shipping_address, payment_method, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8, $9, $10, $11, $12, $13)`,
		order.ID().String(), order.Number().String(), order.UserID().String(),
		t.Subtotal.Amount().String(), t.Tax.Amount().String(), t.ShippingFee.Amount().String(), t.Total.Amount().String(),
		t.Total.Currency(), order.ShippingAddress(), order.PaymentMethod(), order.Status().String(),
		order.CreatedAt(), order.UpdatedAt())
	if postgres.IsUniqueViolation(err) {
		return domain.ErrDuplicateOrderNumber
	}
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	for i, item := range order.Items() {
		_, err := conn.Exec(ctx,
			`INSERT INTO order_items (order_id, line_no, product_id, product_name, quantity, size, unit_price, currency)
			 VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8)`,
			order.ID().String(), i, item.ProductID.String(), item.ProductName, item.Quantity, item.Size,
			item.UnitPrice.Amount().String(), item.UnitPrice.Currency())
		if err != nil {
			return fmt.Errorf("inserting order item: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) Save(ctx context.Context, order *domain.Order) error {
	tag, err := postgres.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		order.ID().String(), order.Status().String(), order.UpdatedAt())
	if err != nil {
		return fmt.Errorf("updating order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id types.OrderID) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id.String())
}

func (r *PostgresRepository) FindByNumber(ctx context.Context, number domain.OrderNumber) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, number.String())
}

func (r *PostgresRepository) ExistsByNumber(ctx context.Context, number domain.OrderNumber) (bool, error) {
	var exists bool
	err := postgres.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`, number.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking order number: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) FindByUserID(ctx context.Context, userID types.UserID, offset, limit int) ([]*domain.Order, int, error) {
	total, err := r.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	orders, err := r.findMany(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1
		 ORDER BY created_at DESC, order_number DESC LIMIT $2 OFFSET $3`,
		userID.String(), limit, offset)
	return orders, total, err
}

func (r *PostgresRepository) CountByUserID(ctx context.Context, userID types.UserID) (int, error) {
	var n int
	err := postgres.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context, status domain.Status, offset, limit int) ([]*domain.Order, int, error) {
	var total int
	err := postgres.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE $1 = '' OR status = $1`, status.String()).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}
	orders, err := r.findMany(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE $1 = '' OR status = $1
		 ORDER BY created_at DESC, order_number DESC LIMIT $2 OFFSET $3`,
		status.String(), limit, offset)
	return orders, total, err
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg string) (*domain.Order, error) {
	row, err := scanOrderRow(postgres.Conn(ctx, r.pool).QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading order: %w", err)
	}
	rows := []*orderRow{&row}
	if err := r.loadItems(ctx, rows); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *PostgresRepository) findMany(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	pgRows, err := postgres.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	var rows []*orderRow
	for pgRows.Next() {
		row, err := scanOrderRow(pgRows)
		if err != nil {
			pgRows.Close()
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		rows = append(rows, &row)
	}
	pgRows.Close()
	if err := pgRows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, rows); err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, len(rows))
	for i, row := range rows {
		orders[i] = row.toDomain()
	}
	return orders, nil
}

// loadItems fills in the items of rows with a single query.
func (r *PostgresRepository) loadItems(ctx context.Context, rows []*orderRow) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]string, len(rows))
	byID := make(map[string]*orderRow, len(rows))
	for i, row := range rows {
		ids[i] = row.id.String()
		byID[ids[i]] = row
	}

	pgRows, err := postgres.Conn(ctx, r.pool).Query(ctx,
		`SELECT order_id::text, product_id::text, product_name, quantity, size, unit_price::text, currency
		   FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, line_no`, ids)
	if err != nil {
		return fmt.Errorf("querying order items: %w", err)
	}
	defer pgRows.Close()

	for pgRows.Next() {
		var orderID, productID, price, currency string
		var item domain.OrderItem
		if err := pgRows.Scan(&orderID, &productID, &item.ProductName, &item.Quantity, &item.Size, &price, &currency); err != nil {
			return fmt.Errorf("scanning order item: %w", err)
		}
		if item.ProductID, err = types.ParseProductID(productID); err != nil {
			return err
		}
		if item.UnitPrice, err = types.ParseMoney(price, currency); err != nil {
			return err
		}
		if row, ok := byID[orderID]; ok {
			row.items = append(row.items, item)
		}
	}
	return pgRows.Err()
}

func scanOrderRow(row pgx.Row) (orderRow, error) {
	var (
		id, number, userID, status               string
		subtotal, tax, shipping, total, currency string
		out                                      orderRow
		createdAt, updatedAt                     time.Time
	)
	err := row.Scan(&id, &number, &userID, &subtotal, &tax, &shipping, &total, &currency,
		&out.shippingAddress, &out.paymentMethod, &status, &createdAt, &updatedAt)
	if err != nil {
		return orderRow{}, err
	}
	if out.id, err = types.ParseOrderID(id); err != nil {
		return orderRow{}, err
	}
	if out.number, err = domain.ParseOrderNumber(number); err != nil {
		return orderRow{}, err
	}
	if out.userID, err = types.ParseUserID(userID); err != nil {
		return orderRow{}, err
	}
	if out.totals, err = parseTotals(subtotal, tax, shipping, total, currency); err != nil {
		return orderRow{}, err
	}
	out.status = domain.Status(status)
	out.createdAt, out.updatedAt = createdAt, updatedAt
	return out, nil
}

func parseTotals(subtotal, tax, shipping, total, currency string) (pricing.Totals, error) {
	var t pricing.Totals
	var err error
	if t.Subtotal, err = types.ParseMoney(subtotal, currency); err != nil {
		return t, err
	}
	if t.Tax, err = types.ParseMoney(tax, currency); err != nil {
		return t, err
	}
	if t.ShippingFee, err = types.ParseMoney(shipping, currency); err != nil {
		return t, err
	}
	if t.Total, err = types.ParseMoney(total, currency); err != nil {
		return t, err
	}
	return t, nil
}

var _ domain.OrderRepository = (*PostgresRepository)(nil)
