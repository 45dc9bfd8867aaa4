package persistence

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	platformspanner "github.com/rai/storefront-modularmonolith-go/internal/platform/spanner"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// SpannerRepository stores orders in Orders with OrderItems interleaved.
type SpannerRepository struct {
	client *spanner.Client
}

func NewSpannerRepository(client *spanner.Client) *SpannerRepository {
	return &SpannerRepository{client: client}
}

var (
	orderCols = []string{"OrderID", "OrderNumber", "UserID", "Subtotal", "Tax", "ShippingFee", "Total", "Currency",
		"ShippingAddress", "PaymentMethod", "Status", "CreatedAt", "UpdatedAt"}
	orderItemCols = []string{"OrderID", "LineNo", "ProductID", "ProductName", "Quantity", "Size", "UnitPrice", "Currency"}
)

const selectOrders = `SELECT OrderID, OrderNumber, UserID, Subtotal, Tax, ShippingFee, Total, Currency,
	ShippingAddress, PaymentMethod, Status, CreatedAt, UpdatedAt FROM Orders`

// Create buffers the order and its items. The unique index on OrderNumber
// rejects a colliding number at commit.
func (r *SpannerRepository) Create(ctx context.Context, order *domain.Order) error {
	t := order.Totals()
	orderID := order.ID().String()
	ms := []*spanner.Mutation{
		spanner.Insert("Orders", orderCols, []interface{}{
			orderID, order.Number().String(), order.UserID().String(),
			t.Subtotal.Amount().Rat(), t.Tax.Amount().Rat(), t.ShippingFee.Amount().Rat(), t.Total.Amount().Rat(),
			t.Total.Currency(), order.ShippingAddress(), order.PaymentMethod(), order.Status().String(),
			order.CreatedAt(), order.UpdatedAt(),
		}),
	}
	for i, item := range order.Items() {
		ms = append(ms, spanner.Insert("OrderItems", orderItemCols, []interface{}{
			orderID, int64(i), item.ProductID.String(), item.ProductName, int64(item.Quantity), item.Size,
			item.UnitPrice.Amount().Rat(), item.UnitPrice.Currency(),
		}))
	}
	if err := platformspanner.Mutate(ctx, r.client, ms...); err != nil {
		if spanner.ErrCode(err) == codes.AlreadyExists {
			return domain.ErrDuplicateOrderNumber
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *SpannerRepository) Save(ctx context.Context, order *domain.Order) error {
	m := spanner.Update("Orders", []string{"OrderID", "Status", "UpdatedAt"},
		[]interface{}{order.ID().String(), order.Status().String(), order.UpdatedAt()})
	if err := platformspanner.Mutate(ctx, r.client, m); err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func (r *SpannerRepository) FindByID(ctx context.Context, id types.OrderID) (*domain.Order, error) {
	return r.findOne(ctx, spanner.Statement{
		SQL:    selectOrders + ` WHERE OrderID = @id`,
		Params: map[string]interface{}{"id": id.String()},
	})
}

func (r *SpannerRepository) FindByNumber(ctx context.Context, number domain.OrderNumber) (*domain.Order, error) {
	return r.findOne(ctx, spanner.Statement{
		SQL:    selectOrders + `@{FORCE_INDEX=OrdersByNumber} WHERE OrderNumber = @number`,
		Params: map[string]interface{}{"number": number.String()},
	})
}

func (r *SpannerRepository) ExistsByNumber(ctx context.Context, number domain.OrderNumber) (bool, error) {
	reader := platformspanner.ReadTransactionFromContext(ctx, r.client)
	_, err := reader.ReadRowUsingIndex(ctx, "Orders", "OrdersByNumber", spanner.Key{number.String()}, []string{"OrderNumber"})
	if spanner.ErrCode(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check order number: %w", err)
	}
	return true, nil
}

func (r *SpannerRepository) FindByUserID(ctx context.Context, userID types.UserID, offset, limit int) ([]*domain.Order, int, error) {
	return r.findMany(ctx,
		`Orders@{FORCE_INDEX=OrdersByUserID} WHERE UserID = @filter`,
		userID.String(), offset, limit)
}

func (r *SpannerRepository) CountByUserID(ctx context.Context, userID types.UserID) (int, error) {
	reader, done := platformspanner.Snapshot(ctx, r.client)
	defer done()
	return count(ctx, reader, `Orders@{FORCE_INDEX=OrdersByUserID} WHERE UserID = @filter`, userID.String())
}

func (r *SpannerRepository) FindAll(ctx context.Context, status domain.Status, offset, limit int) ([]*domain.Order, int, error) {
	return r.findMany(ctx, `Orders WHERE @filter = '' OR Status = @filter`, status.String(), offset, limit)
}

func (r *SpannerRepository) findOne(ctx context.Context, stmt spanner.Statement) (*domain.Order, error) {
	reader, done := platformspanner.Snapshot(ctx, r.client)
	defer done()

	rows, err := queryOrders(ctx, reader, stmt)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrOrderNotFound
	}
	if err := readOrderItems(ctx, reader, rows[0]); err != nil {
		return nil, err
	}
	return rows[0].toDomain(), nil
}

// findMany runs COUNT and the page query on one snapshot. from is the FROM
// clause with an @filter parameter.
func (r *SpannerRepository) findMany(ctx context.Context, from, filter string, offset, limit int) ([]*domain.Order, int, error) {
	reader, done := platformspanner.Snapshot(ctx, r.client)
	defer done()

	total, err := count(ctx, reader, from, filter)
	if err != nil {
		return nil, 0, err
	}

	rows, err := queryOrders(ctx, reader, spanner.Statement{
		SQL: `SELECT OrderID, OrderNumber, UserID, Subtotal, Tax, ShippingFee, Total, Currency,
		      ShippingAddress, PaymentMethod, Status, CreatedAt, UpdatedAt
		      FROM ` + from + `
		      ORDER BY CreatedAt DESC, OrderNumber DESC
		      LIMIT @limit OFFSET @offset`,
		Params: map[string]interface{}{"filter": filter, "limit": int64(limit), "offset": int64(offset)},
	})
	if err != nil {
		return nil, 0, err
	}

	orders := make([]*domain.Order, 0, len(rows))
	for _, row := range rows {
		if err := readOrderItems(ctx, reader, row); err != nil {
			return nil, 0, err
		}
		orders = append(orders, row.toDomain())
	}
	return orders, total, nil
}

func count(ctx context.Context, reader platformspanner.Reader, from, filter string) (int, error) {
	iter := reader.Query(ctx, spanner.Statement{
		SQL:    `SELECT COUNT(*) FROM ` + from,
		Params: map[string]interface{}{"filter": filter},
	})
	defer iter.Stop()

	var total int64
	row, err := iter.Next()
	if err != nil && err != iterator.Done {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	if row != nil {
		if err := row.Columns(&total); err != nil {
			return 0, fmt.Errorf("failed to scan count: %w", err)
		}
	}
	return int(total), nil
}

func queryOrders(ctx context.Context, reader platformspanner.Reader, stmt spanner.Statement) ([]*orderRow, error) {
	iter := reader.Query(ctx, stmt)
	defer iter.Stop()

	var rows []*orderRow
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query orders: %w", err)
		}
		o, err := scanSpannerOrder(row)
		if err != nil {
			return nil, err
		}
		rows = append(rows, o)
	}
}

func scanSpannerOrder(row *spanner.Row) (*orderRow, error) {
	var (
		id, number, userID, currency, status string
		subtotal, tax, shipping, total       big.Rat
		out                                  orderRow
		createdAt, updatedAt                 time.Time
	)
	err := row.Columns(&id, &number, &userID, &subtotal, &tax, &shipping, &total, &currency,
		&out.shippingAddress, &out.paymentMethod, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	if out.id, err = types.ParseOrderID(id); err != nil {
		return nil, fmt.Errorf("failed to parse order id: %w", err)
	}
	if out.number, err = domain.ParseOrderNumber(number); err != nil {
		return nil, fmt.Errorf("failed to parse order number: %w", err)
	}
	if out.userID, err = types.ParseUserID(userID); err != nil {
		return nil, fmt.Errorf("failed to parse user id: %w", err)
	}
	out.totals, err = parseTotals(spanner.NumericString(&subtotal), spanner.NumericString(&tax),
		spanner.NumericString(&shipping), spanner.NumericString(&total), currency)
	if err != nil {
		return nil, fmt.Errorf("failed to parse totals: %w", err)
	}
	out.status = domain.Status(status)
	out.createdAt, out.updatedAt = createdAt, updatedAt
	return &out, nil
}

func readOrderItems(ctx context.Context, reader platformspanner.Reader, order *orderRow) error {
	iter := reader.Read(ctx, "OrderItems", spanner.Key{order.id.String()}.AsPrefix(), orderItemCols)
	defer iter.Stop()

	for {
		row, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read order items: %w", err)
		}

		var (
			orderID, productID, productName, size, currency string
			lineNo, quantity                                int64
			unitPrice                                       big.Rat
		)
		if err := row.Columns(&orderID, &lineNo, &productID, &productName, &quantity, &size, &unitPrice, &currency); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		item := domain.OrderItem{ProductName: productName, Quantity: int(quantity), Size: size}
		if item.ProductID, err = types.ParseProductID(productID); err != nil {
			return fmt.Errorf("failed to parse product id: %w", err)
		}
		if item.UnitPrice, err = types.ParseMoney(spanner.NumericString(&unitPrice), currency); err != nil {
			return fmt.Errorf("failed to parse unit price: %w", err)
		}
		order.items = append(order.items, item)
	}
}

var _ domain.OrderRepository = (*SpannerRepository)(nil)
