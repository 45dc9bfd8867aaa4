package persistence

import (
	"context"
	"fmt"
	"maps"
	"math/big"
	"strings"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	platformspanner "github.com/rai/storefront-modularmonolith-go/internal/platform/spanner"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

type SpannerRepository struct {
	client *spanner.Client
}

func NewSpannerRepository(client *spanner.Client) *SpannerRepository {
	return &SpannerRepository{client: client}
}

var productCols = []string{"ProductID", "Name", "Description", "Category", "Price", "Currency", "Stock", "Active", "CreatedAt", "UpdatedAt"}

func (r *SpannerRepository) Create(ctx context.Context, p *domain.Product) error {
	m := spanner.Insert("Products", productCols, []interface{}{
		p.ID().String(), p.Name(), p.Description(), p.Category(),
		p.Price().Amount().Rat(), p.Price().Currency(),
		int64(p.Stock()), p.Active(), p.CreatedAt(), p.UpdatedAt(),
	})
	if err := platformspanner.Mutate(ctx, r.client, m); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// Update writes every column except Stock.
func (r *SpannerRepository) Update(ctx context.Context, p *domain.Product) error {
	m := spanner.Update("Products",
		[]string{"ProductID", "Name", "Description", "Category", "Price", "Currency", "Active", "UpdatedAt"},
		[]interface{}{
			p.ID().String(), p.Name(), p.Description(), p.Category(),
			p.Price().Amount().Rat(), p.Price().Currency(), p.Active(), p.UpdatedAt(),
		})
	if err := platformspanner.Mutate(ctx, r.client, m); err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (r *SpannerRepository) FindByID(ctx context.Context, id types.ProductID) (*domain.Product, error) {
	reader := platformspanner.ReadTransactionFromContext(ctx, r.client)
	row, err := reader.ReadRow(ctx, "Products", spanner.Key{id.String()}, productCols)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to read product: %w", err)
	}
	return scanSpannerProduct(row)
}

func (r *SpannerRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	where := `WHERE (@category = '' OR Category = @category) AND (NOT @activeOnly OR Active)
	          AND (@minPrice IS NULL OR Price >= @minPrice) AND (@maxPrice IS NULL OR Price <= @maxPrice)
	          AND (@text = '' OR STRPOS(LOWER(Name), @text) > 0 OR STRPOS(LOWER(Description), @text) > 0)`
	params := map[string]interface{}{
		"category":   filter.Category,
		"activeOnly": filter.ActiveOnly,
		"minPrice":   nullNumeric(filter.MinPrice),
		"maxPrice":   nullNumeric(filter.MaxPrice),
		"text":       strings.ToLower(filter.Text),
	}

	reader, done := platformspanner.Snapshot(ctx, r.client)
	defer done()

	countIter := reader.Query(ctx, spanner.Statement{SQL: `SELECT COUNT(*) FROM Products ` + where, Params: params})
	defer countIter.Stop()
	var total int64
	countRow, err := countIter.Next()
	if err != nil && err != iterator.Done {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}
	if countRow != nil {
		if err := countRow.Columns(&total); err != nil {
			return nil, 0, fmt.Errorf("failed to scan count: %w", err)
		}
	}

	limit := int64(filter.Limit)
	if limit <= 0 {
		limit = total
	}
	listParams := maps.Clone(params)
	listParams["limit"] = limit
	listParams["offset"] = int64(filter.Offset)
	iter := reader.Query(ctx, spanner.Statement{
		SQL: `SELECT ProductID, Name, Description, Category, Price, Currency, Stock, Active, CreatedAt, UpdatedAt
		      FROM Products ` + where + `
		      ORDER BY Name, ProductID
		      LIMIT @limit OFFSET @offset`,
		Params: listParams,
	})
	defer iter.Stop()

	products := []*domain.Product{}
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to query products: %w", err)
		}
		p, err := scanSpannerProduct(row)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, int(total), nil
}

// Decrement uses DML rather than a buffered mutation so that a later read or
// reservation in the same transaction observes the new stock level.
func (r *SpannerRepository) Decrement(ctx context.Context, id types.ProductID, quantity int) error {
	n, err := platformspanner.Update(ctx, r.client, spanner.Statement{
		SQL: `UPDATE Products SET Stock = Stock - @qty, UpdatedAt = CURRENT_TIMESTAMP()
		      WHERE ProductID = @id AND Active AND Stock >= @qty`,
		Params: map[string]interface{}{"id": id.String(), "qty": int64(quantity)},
	})
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrInsufficientStock
}

func (r *SpannerRepository) Increment(ctx context.Context, id types.ProductID, quantity int) error {
	return r.updateStock(ctx, `UPDATE Products SET Stock = Stock + @n, UpdatedAt = CURRENT_TIMESTAMP() WHERE ProductID = @id`, id, quantity)
}

func (r *SpannerRepository) Set(ctx context.Context, id types.ProductID, stock int) error {
	return r.updateStock(ctx, `UPDATE Products SET Stock = @n, UpdatedAt = CURRENT_TIMESTAMP() WHERE ProductID = @id`, id, stock)
}

func (r *SpannerRepository) updateStock(ctx context.Context, sql string, id types.ProductID, n int) error {
	rows, err := platformspanner.Update(ctx, r.client, spanner.Statement{
		SQL:    sql,
		Params: map[string]interface{}{"id": id.String(), "n": int64(n)},
	})
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *SpannerRepository) Categories(ctx context.Context) ([]string, error) {
	reader, done := platformspanner.Snapshot(ctx, r.client)
	defer done()

	iter := reader.Query(ctx, spanner.Statement{
		SQL: `SELECT DISTINCT Category FROM Products WHERE Active AND Category != '' ORDER BY Category`,
	})
	defer iter.Stop()

	categories := []string{}
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			return categories, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query categories: %w", err)
		}
		var category string
		if err := row.Columns(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
}

func nullNumeric(d *decimal.Decimal) spanner.NullNumeric {
	if d == nil {
		return spanner.NullNumeric{}
	}
	return spanner.NullNumeric{Numeric: *d.Rat(), Valid: true}
}

func scanSpannerProduct(row *spanner.Row) (*domain.Product, error) {
	var (
		id, name, description, category, currency string
		price                                     big.Rat
		stock                                     int64
		active                                    bool
		createdAt, updatedAt                      time.Time
	)
	if err := row.Columns(&id, &name, &description, &category, &price, &currency, &stock, &active, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	productID, err := types.ParseProductID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product id: %w", err)
	}
	amount, err := types.ParseMoney(spanner.NumericString(&price), currency)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	return domain.Reconstitute(productID, name, description, category, amount, int(stock), active, createdAt, updatedAt), nil
}

var (
	_ domain.ProductRepository = (*SpannerRepository)(nil)
	_ domain.StockRepository   = (*SpannerRepository)(nil)
)
