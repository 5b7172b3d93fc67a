package app

import (
	"context"

	orderdomain "github.com/dwikikusuma/supershop-pos/internal/order/domain"
)

// OrderWriter is the write side of the order store used by checkout.
type OrderWriter interface {
	CreateOrderHeader(ctx context.Context, order orderdomain.Order) (orderdomain.Order, error)
	AddOrderItem(ctx context.Context, item orderdomain.OrderItem) error
	DeleteOrderHeader(ctx context.Context, orderID int64) error
}

type OrderReader interface {
	GetOrder(ctx context.Context, orderID int64) (orderdomain.Order, error)
}

type OrderStore interface {
	OrderWriter
	OrderReader
}

// IdempotencyStore maps a client supplied key to the order it committed.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (orderID int64, ok bool, err error)
	Remember(ctx context.Context, key string, orderID int64) error
}

type EventPublisher interface {
	PublishOrderCommitted(ctx context.Context, ev orderdomain.OrderCommitted) error
}
