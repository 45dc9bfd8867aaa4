// Package persistence implements repository interfaces for the catalog.
package persistence

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/memstore"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

type productRow struct {
	id          types.ProductID
	name        string
	description string
	category    string
	price       types.Money
	stock       int
	active      bool
	createdAt   time.Time
	updatedAt   time.Time
}

func (r productRow) toDomain() *domain.Product {
	return domain.Reconstitute(r.id, r.name, r.description, r.category, r.price, r.stock, r.active, r.createdAt, r.updatedAt)
}

// InMemoryRepository implements ProductRepository and StockRepository on a
// shared memstore.Store. Writes made inside a memstore transaction are
// undone if the transaction fails.
type InMemoryRepository struct {
	store    *memstore.Store
	products map[string]productRow
}

func NewInMemoryRepository(store *memstore.Store) *InMemoryRepository {
	return &InMemoryRepository{
		store:    store,
		products: make(map[string]productRow),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, p *domain.Product) error {
	unlock := r.store.Lock(ctx)
	defer unlock()

	key := p.ID().String()
	r.products[key] = productRow{
		id:          p.ID(),
		name:        p.Name(),
		description: p.Description(),
		category:    p.Category(),
		price:       p.Price(),
		stock:       p.Stock(),
		active:      p.Active(),
		createdAt:   p.CreatedAt(),
		updatedAt:   p.UpdatedAt(),
	}
	memstore.OnRollback(ctx, func() { delete(r.products, key) })
	return nil
}

func (r *InMemoryRepository) Update(ctx context.Context, p *domain.Product) error {
	unlock := r.store.Lock(ctx)
	defer unlock()

	key := p.ID().String()
	prev, ok := r.products[key]
	if !ok {
		return domain.ErrProductNotFound
	}
	row := prev
	row.name = p.Name()
	row.description = p.Description()
	row.category = p.Category()
	row.price = p.Price()
	row.active = p.Active()
	row.updatedAt = p.UpdatedAt()
	r.products[key] = row
	memstore.OnRollback(ctx, func() { r.products[key] = prev })
	return nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id types.ProductID) (*domain.Product, error) {
	unlock := r.store.Lock(ctx)
	defer unlock()

	row, ok := r.products[id.String()]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return row.toDomain(), nil
}

func (r *InMemoryRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	unlock := r.store.Lock(ctx)
	defer unlock()

	var rows []productRow
	for _, row := range r.products {
		if row.matches(filter) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].name != rows[j].name {
			return rows[i].name < rows[j].name
		}
		return rows[i].id.String() < rows[j].id.String()
	})

	total := len(rows)
	if filter.Offset >= total {
		return []*domain.Product{}, total, nil
	}
	end := total
	if filter.Limit > 0 && filter.Offset+filter.Limit < total {
		end = filter.Offset + filter.Limit
	}

	out := make([]*domain.Product, 0, end-filter.Offset)
	for _, row := range rows[filter.Offset:end] {
		out = append(out, row.toDomain())
	}
	return out, total, nil
}

func (r *InMemoryRepository) Categories(ctx context.Context) ([]string, error) {
	unlock := r.store.Lock(ctx)
	defer unlock()

	categories := []string{}
	for _, row := range r.products {
		if row.active && row.category != "" && !slices.Contains(categories, row.category) {
			categories = append(categories, row.category)
		}
	}
	slices.Sort(categories)
	return categories, nil
}

func (r productRow) matches(filter domain.ProductFilter) bool {
	if filter.Category != "" && r.category != filter.Category {
		return false
	}
	if filter.ActiveOnly && !r.active {
		return false
	}
	if filter.MinPrice != nil && r.price.Amount().LessThan(*filter.MinPrice) {
		return false
	}
	if filter.MaxPrice != nil && r.price.Amount().GreaterThan(*filter.MaxPrice) {
		return false
	}
	if filter.Text != "" {
		text := strings.ToLower(filter.Text)
		if !strings.Contains(strings.ToLower(r.name), text) && !strings.Contains(strings.ToLower(r.description), text) {
			return false
		}
	}
	return true
}

func (r *InMemoryRepository) Decrement(ctx context.Context, id types.ProductID, quantity int) error {
	return r.adjust(ctx, id, func(row *productRow) error {
		if !row.active || row.stock < quantity {
			return domain.ErrInsufficientStock
		}
		row.stock -= quantity
		return nil
	})
}

func (r *InMemoryRepository) Increment(ctx context.Context, id types.ProductID, quantity int) error {
	return r.adjust(ctx, id, func(row *productRow) error {
		row.stock += quantity
		return nil
	})
}

func (r *InMemoryRepository) Set(ctx context.Context, id types.ProductID, stock int) error {
	return r.adjust(ctx, id, func(row *productRow) error {
		row.stock = stock
		return nil
	})
}

func (r *InMemoryRepository) adjust(ctx context.Context, id types.ProductID, fn func(row *productRow) error) error {
	unlock := r.store.Lock(ctx)
	defer unlock()

	key := id.String()
	prev, ok := r.products[key]
	if !ok {
		return domain.ErrProductNotFound
	}
	row := prev
	if err := fn(&row); err != nil {
		return err
	}
	row.updatedAt = time.Now().UTC()
	r.products[key] = row
	memstore.OnRollback(ctx, func() {
		cur := r.products[key]
		cur.stock -= row.stock - prev.stock
		r.products[key] = cur
	})
	return nil
}

var (
	_ domain.ProductRepository = (*InMemoryRepository)(nil)
	_ domain.StockRepository   = (*InMemoryRepository)(nil)
)
