// Package queries contains read use cases for the orders module.
package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/rai/storefront-modularmonolith-go/modules/orders/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// OrderDTO is a read model for order data.
type OrderDTO struct {
	ID              string         `json:"id"`
	Number          string         `json:"order_number"`
	UserID          string         `json:"user_id"`
	Items           []OrderItemDTO `json:"items"`
	Subtotal        string         `json:"subtotal"`
	Tax             string         `json:"tax"`
	ShippingFee     string         `json:"shipping_fee"`
	Total           string         `json:"total"`
	Currency        string         `json:"currency"`
	ShippingAddress string         `json:"shipping_address"`
	PaymentMethod   string         `json:"payment_method"`
	Status          string         `json:"status"`
	StatusLabel     string         `json:"status_label"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type OrderItemDTO struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Size        string `json:"size,omitempty"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

// GetOrderQuery retrieves one of the user's orders by its number.
type GetOrderQuery struct {
	UserID      types.UserID
	OrderNumber string
}

type GetOrderHandler struct {
	repo domain.OrderRepository
}

func NewGetOrderHandler(repo domain.OrderRepository) *GetOrderHandler {
	return &GetOrderHandler{repo: repo}
}

// Handle returns ErrNotOwner for another user's order.
func (h *GetOrderHandler) Handle(ctx context.Context, query GetOrderQuery) (*OrderDTO, error) {
	number, err := domain.ParseOrderNumber(query.OrderNumber)
	if err != nil {
		return nil, err
	}

	order, err := h.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("finding order: %w", err)
	}
	if !order.BelongsTo(query.UserID) {
		return nil, types.ErrNotOwner
	}

	return ToOrderDTO(order), nil
}

func ToOrderDTO(order *domain.Order) *OrderDTO {
	items := order.Items()
	itemDTOs := make([]OrderItemDTO, len(items))
	for i, item := range items {
		itemDTOs[i] = OrderItemDTO{
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Size:        item.Size,
			UnitPrice:   item.UnitPrice.StringFixed(),
			LineTotal:   item.LineTotal().StringFixed(),
		}
	}

	totals := order.Totals()
	return &OrderDTO{
		ID:              order.ID().String(),
		Number:          order.Number().String(),
		UserID:          order.UserID().String(),
		Items:           itemDTOs,
		Subtotal:        totals.Subtotal.StringFixed(),
		Tax:             totals.Tax.StringFixed(),
		ShippingFee:     totals.ShippingFee.StringFixed(),
		Total:           totals.Total.StringFixed(),
		Currency:        totals.Total.Currency(),
		ShippingAddress: order.ShippingAddress(),
		PaymentMethod:   order.PaymentMethod(),
		Status:          order.Status().String(),
		StatusLabel:     order.Status().Label(),
		CreatedAt:       order.CreatedAt(),
		UpdatedAt:       order.UpdatedAt(),
	}
}
