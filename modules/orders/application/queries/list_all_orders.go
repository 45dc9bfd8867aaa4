package queries

import (
	"context"
	"fmt"

	"github.com/rai/storefront-modularmonolith-go/modules/orders/domain"
)

// ListAllOrdersQuery is the admin view over every user's orders.
// Status is optional.
type ListAllOrdersQuery struct {
	Status string
	Offset int
	Limit  int
}

type ListAllOrdersHandler struct {
	repo domain.OrderRepository
}

func NewListAllOrdersHandler(repo domain.OrderRepository) *ListAllOrdersHandler {
	return &ListAllOrdersHandler{repo: repo}
}

func (h *ListAllOrdersHandler) Handle(ctx context.Context, query ListAllOrdersQuery) (*OrderListDTO, error) {
	var status domain.Status
	if query.Status != "" {
		s, err := domain.ParseStatus(query.Status)
		if err != nil {
			return nil, err
		}
		status = s
	}
	offset, limit := page(query.Offset, query.Limit)

	orders, total, err := h.repo.FindAll(ctx, status, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return toListDTO(orders, total, offset, limit), nil
}
