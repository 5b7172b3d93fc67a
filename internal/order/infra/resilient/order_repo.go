package resilient

import (
	"context"
	"errors"
	"log/slog"
	"time"

	catalog "github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
	"github.com/dwikikusuma/supershop-pos/internal/order/app"
	"github.com/dwikikusuma/supershop-pos/internal/order/domain"
	"github.com/sony/gobreaker/v2"
)

// ErrStoreUnavailable is returned while the breaker is open.
var ErrStoreUnavailable = errors.New("order store unavailable")

type Settings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// OrderRepo fails fast once the wrapped store keeps failing. Validation and
// not-found results do not count as failures. DeleteOrderHeader always goes
// straight to the store: a compensating delete must never be short-circuited.
type OrderRepo struct {
	next app.OrderRepo
	cb   *gobreaker.CircuitBreaker[domain.Order]
}

func NewOrderRepo(next app.OrderRepo, s Settings, log *slog.Logger) *OrderRepo {
	if s.Name == "" {
		s.Name = "order-store"
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[domain.Order](gobreaker.Settings{
		Name:    s.Name,
		Timeout: s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, catalog.ErrInvalidInput) || errors.Is(err, app.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &OrderRepo{next: next, cb: cb}
}

func (r *OrderRepo) CreateOrderHeader(ctx context.Context, order domain.Order) (domain.Order, error) {
	return r.execute(func() (domain.Order, error) {
		return r.next.CreateOrderHeader(ctx, order)
	})
}

func (r *OrderRepo) AddOrderItem(ctx context.Context, item domain.OrderItem) error {
	_, err := r.execute(func() (domain.Order, error) {
		return domain.Order{}, r.next.AddOrderItem(ctx, item)
	})
	return err
}

func (r *OrderRepo) DeleteOrderHeader(ctx context.Context, orderID int64) error {
	return r.next.DeleteOrderHeader(ctx, orderID)
}

func (r *OrderRepo) GetOrder(ctx context.Context, orderID int64) (domain.Order, error) {
	return r.execute(func() (domain.Order, error) {
		return r.next.GetOrder(ctx, orderID)
	})
}

func (r *OrderRepo) execute(fn func() (domain.Order, error)) (domain.Order, error) {
	o, err := r.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.Order{}, errors.Join(ErrStoreUnavailable, err)
	}
	return o, err
}
