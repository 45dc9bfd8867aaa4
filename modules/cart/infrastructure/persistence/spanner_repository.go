package persistence

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"

	platformspanner "github.com/rai/storefront-modularmonolith-go/internal/platform/spanner"
	"github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// SpannerRepository stores carts in Carts with CartItems interleaved.
type SpannerRepository struct {
	client *spanner.Client
}

func NewSpannerRepository(client *spanner.Client) *SpannerRepository {
	return &SpannerRepository{client: client}
}

var cartItemCols = []string{"CartID", "CartItemID", "ProductID", "Quantity", "Size", "AddedAt"}

func (r *SpannerRepository) FindByUserID(ctx context.Context, userID types.UserID) (*domain.Cart, error) {
	return r.load(ctx, spanner.Statement{
		SQL:    `SELECT CartID, UserID, CreatedAt, UpdatedAt FROM Carts@{FORCE_INDEX=CartsByUserID} WHERE UserID = @id`,
		Params: map[string]interface{}{"id": userID.String()},
	}, domain.ErrCartNotFound)
}

func (r *SpannerRepository) FindByItemID(ctx context.Context, itemID types.CartItemID) (*domain.Cart, error) {
	return r.load(ctx, spanner.Statement{
		SQL: `SELECT c.CartID, c.UserID, c.CreatedAt, c.UpdatedAt
		      FROM Carts c JOIN CartItems i ON i.CartID = c.CartID
		      WHERE i.CartItemID = @id`,
		Params: map[string]interface{}{"id": itemID.String()},
	}, domain.ErrCartItemNotFound)
}

func (r *SpannerRepository) load(ctx context.Context, stmt spanner.Statement, notFound error) (*domain.Cart, error) {
	reader, done := platformspanner.Snapshot(ctx, r.client)
	defer done()

	iter := reader.Query(ctx, stmt)
	defer iter.Stop()
	row, err := iter.Next()
	if err == iterator.Done {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	var (
		id, userID           string
		createdAt, updatedAt time.Time
	)
	if err := row.Columns(&id, &userID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan cart: %w", err)
	}
	c := cartRow{createdAt: createdAt, updatedAt: updatedAt}
	if c.id, err = types.ParseCartID(id); err != nil {
		return nil, err
	}
	if c.userID, err = types.ParseUserID(userID); err != nil {
		return nil, err
	}

	items := reader.Read(ctx, "CartItems", spanner.Key{id}.AsPrefix(), cartItemCols)
	defer items.Stop()
	for {
		row, err := items.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read cart items: %w", err)
		}
		var (
			cartID, itemID, productID, size string
			quantity                        int64
			addedAt                         time.Time
		)
		if err := row.Columns(&cartID, &itemID, &productID, &quantity, &size, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		item := domain.CartItem{Quantity: int(quantity), Size: size, AddedAt: addedAt}
		if item.ID, err = types.ParseCartItemID(itemID); err != nil {
			return nil, err
		}
		if item.ProductID, err = types.ParseProductID(productID); err != nil {
			return nil, err
		}
		c.items = append(c.items, item)
	}
	sortItems(c.items)
	return c.toDomain(), nil
}

// Save replaces the cart's item set. Mutations apply in order, so the
// prefix delete runs before the inserts.
func (r *SpannerRepository) Save(ctx context.Context, cart *domain.Cart) error {
	cartID := cart.ID().String()
	ms := []*spanner.Mutation{
		spanner.InsertOrUpdate("Carts",
			[]string{"CartID", "UserID", "CreatedAt", "UpdatedAt"},
			[]interface{}{cartID, cart.UserID().String(), cart.CreatedAt(), cart.UpdatedAt()}),
		spanner.Delete("CartItems", spanner.Key{cartID}.AsPrefix()),
	}
	for _, it := range cart.Items() {
		ms = append(ms, spanner.Insert("CartItems", cartItemCols, []interface{}{
			cartID, it.ID.String(), it.ProductID.String(), int64(it.Quantity), it.Size, it.AddedAt,
		}))
	}
	if err := platformspanner.Mutate(ctx, r.client, ms...); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

var _ domain.CartRepository = (*SpannerRepository)(nil)
