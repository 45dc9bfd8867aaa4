package queries

import (
	"context"
	"fmt"

	"github.com/rai/storefront-modularmonolith-go/modules/orders/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// OrderListDTO contains a paginated list of orders.
type OrderListDTO struct {
	Orders     []*OrderDTO `json:"orders"`
	TotalCount int         `json:"total_count"`
	Offset     int         `json:"offset"`
	Limit      int         `json:"limit"`
}

// ListUserOrdersQuery retrieves orders for a specific user.
type ListUserOrdersQuery struct {
	UserID types.UserID
	Offset int
	Limit  int
}

type ListUserOrdersHandler struct {
	repo domain.OrderRepository
}

func NewListUserOrdersHandler(repo domain.OrderRepository) *ListUserOrdersHandler {
	return &ListUserOrdersHandler{repo: repo}
}

func (h *ListUserOrdersHandler) Handle(ctx context.Context, query ListUserOrdersQuery) (*OrderListDTO, error) {
	offset, limit := page(query.Offset, query.Limit)

	orders, total, err := h.repo.FindByUserID(ctx, query.UserID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return toListDTO(orders, total, offset, limit), nil
}

// CountUserOrdersQuery counts a user's orders.
type CountUserOrdersQuery struct {
	UserID types.UserID
}

type CountUserOrdersHandler struct {
	repo domain.OrderRepository
}

func NewCountUserOrdersHandler(repo domain.OrderRepository) *CountUserOrdersHandler {
	return &CountUserOrdersHandler{repo: repo}
}

func (h *CountUserOrdersHandler) Handle(ctx context.Context, query CountUserOrdersQuery) (int, error) {
	n, err := h.repo.CountByUserID(ctx, query.UserID)
	if err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return n, nil
}

func page(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit
}

func toListDTO(orders []*domain.Order, total, offset, limit int) *OrderListDTO {
	dtos := make([]*OrderDTO, len(orders))
	for i, order := range orders {
		dtos[i] = ToOrderDTO(order)
	}
	return &OrderListDTO{
		Orders:     dtos,
		TotalCount: total,
		Offset:     offset,
		Limit:      limit,
	}
}
