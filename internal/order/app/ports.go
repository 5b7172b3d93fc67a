package app

import (
	"context"

	"github.com/dwikikusuma/supershop-pos/internal/order/domain"
)

type OrderRepo interface {
	// CreateOrderHeader stores the header and returns it with its id and
	// receipt number assigned.
	CreateOrderHeader(ctx context.Context, order domain.Order) (domain.Order, error)
	AddOrderItem(ctx context.Context, item domain.OrderItem) error
	// DeleteOrderHeader removes the header and any items written for it.
	// Deleting an order that does not exist is not an error.
	DeleteOrderHeader(ctx context.Context, orderID int64) error
	// GetOrder returns the header with its items ordered by position.
	GetOrder(ctx context.Context, orderID int64) (domain.Order, error)
}

type ReceiptRenderer interface {
	Render(order *domain.Order, items []domain.OrderItem) (string, error)
}
