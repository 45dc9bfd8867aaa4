package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/postgres"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const productColumns = `id::text, name, description, category, price::text, currency, stock, active, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, p *domain.Product) error {
	_, err := postgres.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO products (id, name, description, category, price, currency, stock, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10)`,
		p.ID().String(), p.Name(), p.Description(), p.Category(),
		p.Price().Amount().String(), p.Price().Currency(),
		p.Stock(), p.Active(), p.CreatedAt(), p.UpdatedAt())
	if err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *domain.Product) error {
	tag, err := postgres.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE products
		    SET name = $2, description = $3, category = $4, price = $5::numeric, currency = $6, active = $7, updated_at = $8
		  WHERE id = $1`,
		p.ID().String(), p.Name(), p.Description(), p.Category(),
		p.Price().Amount().String(), p.Price().Currency(), p.Active(), p.UpdatedAt())
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id types.ProductID) (*domain.Product, error) {
	row := postgres.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id.String())
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	var where []string
	var args []any
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.ActiveOnly {
		where = append(where, "active")
	}
	if filter.MinPrice != nil {
		args = append(args, filter.MinPrice.String())
		where = append(where, fmt.Sprintf("price >= $%d::numeric", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, filter.MaxPrice.String())
		where = append(where, fmt.Sprintf("price <= $%d::numeric", len(args)))
	}
	if filter.Text != "" {
		args = append(args, "%"+likeEscaper.Replace(filter.Text)+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	conn := postgres.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM products`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + clause + ` ORDER BY name, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PostgresRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := postgres.Conn(ctx, r.pool).Query(ctx,
		`SELECT DISTINCT category FROM products WHERE active AND category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning categories: %w", err)
	}
	return categories, nil
}

// Decrement relies on the row lock taken by the conditional UPDATE: two
// concurrent reservations serialize on the row and the second re-evaluates
// the stock predicate against the committed value.
func (r *PostgresRepository) Decrement(ctx context.Context, id types.ProductID, quantity int) error {
	conn := postgres.Conn(ctx, r.pool)
	tag, err := conn.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = now()
		  WHERE id = $1 AND active AND stock >= $2`,
		id.String(), quantity)
	if err != nil {
		return fmt.Errorf("decrementing stock: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id.String()).Scan(&exists); err != nil {
		return fmt.Errorf("probing product: %w", err)
	}
	if !exists {
		return domain.ErrProductNotFound
	}
	return domain.ErrInsufficientStock
}

func (r *PostgresRepository) Increment(ctx context.Context, id types.ProductID, quantity int) error {
	return r.execStock(ctx, `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`, id, quantity)
}

func (r *PostgresRepository) Set(ctx context.Context, id types.ProductID, stock int) error {
	return r.execStock(ctx, `UPDATE products SET stock = $2, updated_at = now() WHERE id = $1`, id, stock)
}

func (r *PostgresRepository) execStock(ctx context.Context, sql string, id types.ProductID, n int) error {
	tag, err := postgres.Conn(ctx, r.pool).Exec(ctx, sql, id.String(), n)
	if err != nil {
		return fmt.Errorf("updating stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		id, name, description, category, price, currency string
		stock                                            int
		active                                           bool
		createdAt, updatedAt                             time.Time
	)
	if err := row.Scan(&id, &name, &description, &category, &price, &currency, &stock, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	productID, err := types.ParseProductID(id)
	if err != nil {
		return nil, fmt.Errorf("parsing product id: %w", err)
	}
	amount, err := types.ParseMoney(price, currency)
	if err != nil {
		return nil, fmt.Errorf("parsing price: %w", err)
	}
	return domain.Reconstitute(productID, name, description, category, amount, stock, active, createdAt, updatedAt), nil
}

var (
	_ domain.ProductRepository = (*PostgresRepository)(nil)
	_ domain.StockRepository   = (*PostgresRepository)(nil)
)
