package queries_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/memstore"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/application/queries"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/infrastructure/persistence"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// suffixes keeps generated order numbers unique across seeds within a second.
var suffixes = domain.NewNumberGenerator(nil, func() func(int) int {
	next := 0
	return func(int) int { next++; return next }
}())

func seed(t *testing.T, repo domain.OrderRepository, userID types.UserID, n int) []*domain.Order {
	t.Helper()

	out := make([]*domain.Order, n)
	for i := range out {
		items := []domain.OrderItem{{
			ProductID:   types.NewProductID(),
			ProductName: "Mug",
			Quantity:    2,
			UnitPrice:   types.USD("12.50"),
		}}
		order, err := domain.PlaceOrder(suffixes.Generate(), userID, items, "1 Main St", "card")
		if err != nil {
			t.Fatalf("placing order: %v", err)
		}
		if err := repo.Create(context.Background(), order); err != nil {
			t.Fatalf("saving order: %v", err)
		}
		out[i] = order
	}
	return out
}

func TestGetOrderHandler(t *testing.T) {
	repo := persistence.NewInMemoryRepository(memstore.New())
	owner := types.NewUserID()
	order := seed(t, repo, owner, 1)[0]
	h := queries.NewGetOrderHandler(repo)
	ctx := context.Background()

	dto, err := h.Handle(ctx, queries.GetOrderQuery{UserID: owner, OrderNumber: order.Number().String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Subtotal != "25.00" || dto.Tax != "2.00" || dto.ShippingFee != "10.00" || dto.Total != "37.00" {
		t.Errorf("unexpected totals %+v", dto)
	}
	if dto.StatusLabel != "Pending" || len(dto.Items) != 1 {
		t.Errorf("unexpected order view %+v", dto)
	}

	tests := []struct {
		name   string
		query  queries.GetOrderQuery
		target error
	}{
		{"other user", queries.GetOrderQuery{UserID: types.NewUserID(), OrderNumber: order.Number().String()}, types.ErrNotOwner},
		{"malformed number", queries.GetOrderQuery{UserID: owner, OrderNumber: "ORD-1"}, types.ErrInvalidID},
		{"unknown number", queries.GetOrderQuery{UserID: owner, OrderNumber: "ORD-20230101000000-1000"}, types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.Handle(ctx, tt.query); !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestListUserOrdersHandler(t *testing.T) {
	repo := persistence.NewInMemoryRepository(memstore.New())
	userID := types.NewUserID()
	seed(t, repo, userID, 3)
	seed(t, repo, types.NewUserID(), 2)
	ctx := context.Background()

	list, err := queries.NewListUserOrdersHandler(repo).Handle(ctx, queries.ListUserOrdersQuery{UserID: userID, Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.TotalCount != 3 || len(list.Orders) != 2 || list.Limit != 2 {
		t.Errorf("expected first page of 2 out of 3, got %d of %d", len(list.Orders), list.TotalCount)
	}
	for _, o := range list.Orders {
		if o.UserID != userID.String() {
			t.Errorf("listed another user's order %s", o.Number)
		}
	}

	list, err = queries.NewListUserOrdersHandler(repo).Handle(ctx, queries.ListUserOrdersQuery{UserID: userID, Offset: -5, Limit: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Offset != 0 || list.Limit != 100 || len(list.Orders) != 3 {
		t.Errorf("expected clamped paging, got offset=%d limit=%d", list.Offset, list.Limit)
	}

	n, err := queries.NewCountUserOrdersHandler(repo).Handle(ctx, queries.CountUserOrdersQuery{UserID: userID})
	if err != nil || n != 3 {
		t.Errorf("expected 3 orders, got %d (%v)", n, err)
	}
}

func TestListAllOrdersHandler(t *testing.T) {
	repo := persistence.NewInMemoryRepository(memstore.New())
	orders := seed(t, repo, types.NewUserID(), 3)
	ctx := context.Background()

	confirmed := orders[1]
	if err := confirmed.TransitionTo(domain.StatusConfirmed); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := repo.Save(ctx, confirmed); err != nil {
		t.Fatalf("saving: %v", err)
	}

	h := queries.NewListAllOrdersHandler(repo)
	all, err := h.Handle(ctx, queries.ListAllOrdersQuery{})
	if err != nil || all.TotalCount != 3 {
		t.Fatalf("expected 3 orders, got %+v (%v)", all, err)
	}

	filtered, err := h.Handle(ctx, queries.ListAllOrdersQuery{Status: "confirmed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filtered.TotalCount != 1 || filtered.Orders[0].Number != confirmed.Number().String() {
		t.Errorf("expected only the confirmed order, got %+v", filtered)
	}

	if _, err := h.Handle(ctx, queries.ListAllOrdersQuery{Status: "LOST"}); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}
