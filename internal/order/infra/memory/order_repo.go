package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dwikikusuma/supershop-pos/internal/order/app"
	"github.com/dwikikusuma/supershop-pos/internal/order/domain"
)

// OrderRepo keeps orders in process memory. Receipt numbers are never
// reused, even after a header is deleted.
type OrderRepo struct {
	mu          sync.Mutex
	lastID      int64
	lastReceipt int64
	orders      map[int64]domain.Order
	items       map[int64]map[int]domain.OrderItem
}

func NewOrderRepo() *OrderRepo {
	return &OrderRepo{
		orders: make(map[int64]domain.Order),
		items:  make(map[int64]map[int]domain.OrderItem),
	}
}

func (r *OrderRepo) CreateOrderHeader(ctx context.Context, order domain.Order) (domain.Order, error) {
	if err := order.Validate(); err != nil {
		return domain.Order{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	r.lastReceipt++
	order.ID = r.lastID
	order.ReceiptNumber = r.lastReceipt
	order.CreatedAt = order.CreatedAt.UTC()
	order.Items = nil

	r.orders[order.ID] = order
	r.items[order.ID] = make(map[int]domain.OrderItem)
	return order, nil
}

func (r *OrderRepo) AddOrderItem(ctx context.Context, item domain.OrderItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, ok := r.items[item.OrderID]
	if !ok {
		return fmt.Errorf("failed to insert item %d: order %d: %w", item.Position, item.OrderID, app.ErrNotFound)
	}
	if _, dup := items[item.Position]; dup {
		return fmt.Errorf("failed to insert item %d: position already taken", item.Position)
	}
	items[item.Position] = item
	return nil
}

func (r *OrderRepo) DeleteOrderHeader(ctx context.Context, orderID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.orders, orderID)
	delete(r.items, orderID)
	return nil
}

func (r *OrderRepo) GetOrder(ctx context.Context, orderID int64) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, app.ErrNotFound
	}

	o.Items = make([]domain.OrderItem, 0, len(r.items[orderID]))
	for _, it := range r.items[orderID] {
		o.Items = append(o.Items, it)
	}
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].Position < o.Items[j].Position })
	return o, nil
}
