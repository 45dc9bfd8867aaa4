// Package persistence implements CartRepository for each store driver.
package persistence

import (
	"context"
	"sort"
	"time"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/memstore"
	"github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

type cartRow struct {
	id        types.CartID
	userID    types.UserID
	items     []domain.CartItem
	createdAt time.Time
	updatedAt time.Time
}

func (r cartRow) toDomain() *domain.Cart {
	items := make([]domain.CartItem, len(r.items))
	copy(items, r.items)
	return domain.Reconstitute(r.id, r.userID, items, r.createdAt, r.updatedAt)
}

// InMemoryRepository keeps one cart per user on a shared memstore.Store.
type InMemoryRepository struct {
	store *memstore.Store
	carts map[string]cartRow // keyed by user ID
	items map[string]string  // item ID -> user ID
}

func NewInMemoryRepository(store *memstore.Store) *InMemoryRepository {
	return &InMemoryRepository{
		store: store,
		carts: make(map[string]cartRow),
		items: make(map[string]string),
	}
}

func (r *InMemoryRepository) FindByUserID(ctx context.Context, userID types.UserID) (*domain.Cart, error) {
	unlock := r.store.Lock(ctx)
	defer unlock()

	row, ok := r.carts[userID.String()]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return row.toDomain(), nil
}

func (r *InMemoryRepository) FindByItemID(ctx context.Context, itemID types.CartItemID) (*domain.Cart, error) {
	unlock := r.store.Lock(ctx)
	defer unlock()

	userKey, ok := r.items[itemID.String()]
	if !ok {
		return nil, domain.ErrCartItemNotFound
	}
	return r.carts[userKey].toDomain(), nil
}

func (r *InMemoryRepository) Save(ctx context.Context, cart *domain.Cart) error {
	unlock := r.store.Lock(ctx)
	defer unlock()

	userKey := cart.UserID().String()
	prev, existed := r.carts[userKey]
	if existed && prev.id != cart.ID() {
		return domain.ErrCartConflict
	}

	if existed {
		for _, it := range prev.items {
			delete(r.items, it.ID.String())
		}
	}
	row := cartRow{
		id:        cart.ID(),
		userID:    cart.UserID(),
		items:     cart.Items(),
		createdAt: cart.CreatedAt(),
		updatedAt: cart.UpdatedAt(),
	}
	r.carts[userKey] = row
	for _, it := range row.items {
		r.items[it.ID.String()] = userKey
	}

	memstore.OnRollback(ctx, func() {
		for _, it := range row.items {
			delete(r.items, it.ID.String())
		}
		if !existed {
			delete(r.carts, userKey)
			return
		}
		r.carts[userKey] = prev
		for _, it := range prev.items {
			r.items[it.ID.String()] = userKey
		}
	})
	return nil
}

var _ domain.CartRepository = (*InMemoryRepository)(nil)

// sortItems orders items by the time they were added.
func sortItems(items []domain.CartItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].AddedAt.Before(items[j].AddedAt)
	})
}
