// Package persistence implements repository interfaces for orders.
package persistence

import (
	"context"
	"sort"
	"time"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/memstore"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/pricing"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

type orderRow struct {
	id              types.OrderID
	number          domain.OrderNumber
	userID          types.UserID
	items           []domain.OrderItem
	totals          pricing.Totals
	shippingAddress string
	paymentMethod   string
	status          domain.Status
	createdAt       time.Time
	updatedAt       time.Time
}

func (r orderRow) toDomain() *domain.Order {
	items := append([]domain.OrderItem(nil), r.items...)
	return domain.Reconstitute(r.id, r.number, r.userID, items, r.totals,
		r.shippingAddress, r.paymentMethod, r.status, r.createdAt, r.updatedAt)
}

// InMemoryRepository implements OrderRepository on a shared memstore.Store.
type InMemoryRepository struct {
	store    *memstore.Store
	orders   map[string]orderRow
	byNumber map[string]string
}

func NewInMemoryRepository(store *memstore.Store) *InMemoryRepository {
	return &InMemoryRepository{
		store:    store,
		orders:   make(map[string]orderRow),
		byNumber: make(map[string]string),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, order *domain.Order) error {
	unlock := r.store.Lock(ctx)
	defer unlock()

	number := order.Number().String()
	if _, exists := r.byNumber[number]; exists {
		return domain.ErrDuplicateOrderNumber
	}
	key := order.ID().String()
	r.orders[key] = orderRow{
		id:              order.ID(),
		number:          order.Number(),
		userID:          order.UserID(),
		items:           order.Items(),
		totals:          order.Totals(),
		shippingAddress: order.ShippingAddress(),
		paymentMethod:   order.PaymentMethod(),
		status:          order.Status(),
		createdAt:       order.CreatedAt(),
		updatedAt:       order.UpdatedAt(),
	}
	r.byNumber[number] = key
	memstore.OnRollback(ctx, func() {
		delete(r.orders, key)
		delete(r.byNumber, number)
	})
	return nil
}

func (r *InMemoryRepository) Save(ctx context.Context, order *domain.Order) error {
	unlock := r.store.Lock(ctx)
	defer unlock()

	key := order.ID().String()
	prev, ok := r.orders[key]
	if !ok {
		return domain.ErrOrderNotFound
	}
	row := prev
	row.status = order.Status()
	row.updatedAt = order.UpdatedAt()
	r.orders[key] = row
	memstore.OnRollback(ctx, func() { r.orders[key] = prev })
	return nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id types.OrderID) (*domain.Order, error) {
	unlock := r.store.Lock(ctx)
	defer unlock()

	row, ok := r.orders[id.String()]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return row.toDomain(), nil
}

func (r *InMemoryRepository) FindByNumber(ctx context.Context, number domain.OrderNumber) (*domain.Order, error) {
	unlock := r.store.Lock(ctx)
	defer unlock()

	key, ok := r.byNumber[number.String()]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return r.orders[key].toDomain(), nil
}

func (r *InMemoryRepository) ExistsByNumber(ctx context.Context, number domain.OrderNumber) (bool, error) {
	unlock := r.store.Lock(ctx)
	defer unlock()

	_, ok := r.byNumber[number.String()]
	return ok, nil
}

func (r *InMemoryRepository) FindByUserID(ctx context.Context, userID types.UserID, offset, limit int) ([]*domain.Order, int, error) {
	return r.list(ctx, func(row orderRow) bool { return row.userID == userID }, offset, limit)
}

func (r *InMemoryRepository) CountByUserID(ctx context.Context, userID types.UserID) (int, error) {
	_, total, err := r.list(ctx, func(row orderRow) bool { return row.userID == userID }, 0, 0)
	return total, err
}

func (r *InMemoryRepository) FindAll(ctx context.Context, status domain.Status, offset, limit int) ([]*domain.Order, int, error) {
	return r.list(ctx, func(row orderRow) bool { return status == "" || row.status == status }, offset, limit)
}

// list returns matching orders newest first. A zero limit returns no rows,
// only the count.
func (r *InMemoryRepository) list(ctx context.Context, match func(orderRow) bool, offset, limit int) ([]*domain.Order, int, error) {
	unlock := r.store.Lock(ctx)
	defer unlock()

	var rows []orderRow
	for _, row := range r.orders {
		if match(row) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].createdAt.Equal(rows[j].createdAt) {
			return rows[i].createdAt.After(rows[j].createdAt)
		}
		return rows[i].number.String() > rows[j].number.String()
	})

	total := len(rows)
	if offset >= total {
		return []*domain.Order{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	orders := make([]*domain.Order, 0, end-offset)
	for _, row := range rows[offset:end] {
		orders = append(orders, row.toDomain())
	}
	return orders, total, nil
}

var _ domain.OrderRepository = (*InMemoryRepository)(nil)
