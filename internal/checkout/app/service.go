package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cartdomain "github.com/dwikikusuma/supershop-pos/internal/cart/domain"
	"github.com/dwikikusuma/supershop-pos/internal/checkout/domain"
	orderdomain "github.com/dwikikusuma/supershop-pos/internal/order/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	ThankYouMessage string
	CommitTimeout   time.Duration
	ItemConcurrency int

	// Idempotency and Publisher are optional.
	Idempotency IdempotencyStore
	Publisher   EventPublisher

	Logger *slog.Logger
	Tracer trace.Tracer
	Now    func() time.Time
}

type Service struct {
	orders OrderStore
	idem   IdempotencyStore
	events EventPublisher

	thankYou      string
	commitTimeout time.Duration
	concurrency   int

	log    *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func NewService(orders OrderStore, opts Options) *Service {
	s := &Service{
		orders:        orders,
		idem:          opts.Idempotency,
		events:        opts.Publisher,
		thankYou:      opts.ThankYouMessage,
		commitTimeout: opts.CommitTimeout,
		concurrency:   opts.ItemConcurrency,
		log:           opts.Logger,
		tracer:        opts.Tracer,
		now:           opts.Now,
	}
	if s.commitTimeout <= 0 {
		s.commitTimeout = 30 * time.Second
	}
	if s.concurrency <= 0 {
		s.concurrency = 4
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("github.com/dwikikusuma/supershop-pos/internal/checkout")
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Quote prices the cart as it stands without committing anything.
func (s *Service) Quote(cart *cartdomain.Cart) domain.Quote {
	return domain.NewQuote(cart.Lines())
}

// Result is a checkout outcome. Replayed is set when the idempotency key
// had already committed an order and that order was returned unchanged.
type Result struct {
	Order    orderdomain.Order
	Replayed bool
}

// Checkout commits the cart as an order and takes the committed lines out
// of it. Once the header is stored the caller's cancellation no longer
// applies: the items are written or the header is deleted again before
// Checkout returns.
func (s *Service) Checkout(ctx context.Context, cart *cartdomain.Cart, idempotencyKey string) (orderdomain.Order, error) {
	res, err := s.Commit(ctx, cart, idempotencyKey)
	return res.Order, err
}

// Commit is Checkout that also reports whether the order was replayed.
func (s *Service) Commit(ctx context.Context, cart *cartdomain.Cart, idempotencyKey string) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Checkout", trace.WithAttributes(attribute.String("cart.id", cart.ID())))
	defer span.End()

	res, err := s.checkout(ctx, cart, idempotencyKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	span.SetAttributes(
		attribute.Int64("order.id", res.Order.ID),
		attribute.Int64("order.receipt_number", res.Order.ReceiptNumber),
		attribute.Bool("checkout.replayed", res.Replayed),
	)
	return res, nil
}

// scopedKey ties a client key to one cart, so reusing a key on another
// cart commits that cart instead of replaying someone else's order.
func scopedKey(cartID, key string) string {
	return cartID + ":" + key
}

func (s *Service) checkout(ctx context.Context, cart *cartdomain.Cart, key string) (Result, error) {
	unlock := cart.LockCheckout()
	defer unlock()

	if key != "" && s.idem != nil {
		key = scopedKey(cart.ID(), key)
		id, ok, err := s.idem.Lookup(ctx, key)
		if err != nil {
			return Result{}, fmt.Errorf("idempotency lookup: %w", err)
		}
		if ok {
			s.log.Info("checkout replayed", "cart_id", cart.ID(), "order_id", id)
			order, err := s.orders.GetOrder(ctx, id)
			if err != nil {
				return Result{}, err
			}
			return Result{Order: order, Replayed: true}, nil
		}
	}

	lines := cart.Lines()
	quote := domain.NewQuote(lines)
	if quote.Empty() {
		return Result{}, ErrEmptyCart
	}

	header, err := orderdomain.NewOrder(quote.Subtotal, quote.VAT, s.thankYou, s.now().UTC())
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	commitCtx, cancel := s.commitContext(ctx)
	defer cancel()

	order, err := s.orders.CreateOrderHeader(commitCtx, header)
	if err != nil {
		return Result{}, &PersistenceError{Op: "create order header", OrderID: orderdomain.UncommittedID, Err: err}
	}

	items := quote.OrderItems(order.ID)
	if err := s.writeItems(commitCtx, items); err != nil {
		return Result{}, s.compensate(ctx, order.ID, err)
	}
	order.Items = items

	if key != "" && s.idem != nil {
		if err := s.idem.Remember(commitCtx, key, order.ID); err != nil {
			s.log.Warn("failed to remember idempotency key", "order_id", order.ID, slog.Any("err", err))
		}
	}
	if s.events != nil {
		if err := s.events.PublishOrderCommitted(commitCtx, orderdomain.NewOrderCommitted(order)); err != nil {
			s.log.Warn("failed to publish order committed", "order_id", order.ID, slog.Any("err", err))
		}
	}

	// Lines scanned while the commit ran are not part of this order.
	cart.Consume(lines)
	s.log.Info("order committed",
		"cart_id", cart.ID(),
		"order_id", order.ID,
		"receipt_number", order.ReceiptNumber,
		"items", len(items),
		"total", order.GrandTotal().String(),
		"cart_lines_left", cart.Len(),
	)
	return Result{Order: order}, nil
}

func (s *Service) commitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.commitTimeout)
}

func (s *Service) writeItems(ctx context.Context, items []orderdomain.OrderItem) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, it := range items {
		g.Go(func() error {
			if err := s.orders.AddOrderItem(ctx, it); err != nil {
				return fmt.Errorf("item %d (%s): %w", it.Position, it.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// compensate runs on its own deadline so an item write that used up the
// commit timeout still leaves room to delete the header.
func (s *Service) compensate(ctx context.Context, orderID int64, cause error) error {
	delCtx, cancel := s.commitContext(ctx)
	defer cancel()

	if err := s.orders.DeleteOrderHeader(delCtx, orderID); err != nil {
		s.log.Error("checkout compensation failed, order needs reconciliation",
			"order_id", orderID,
			slog.Any("err", cause),
			slog.Any("compensation_err", err),
		)
		return &IntegrityError{OrderID: orderID, Err: cause, CompensationErr: err}
	}

	s.log.Warn("checkout rolled back", "order_id", orderID, slog.Any("err", cause))
	return &PersistenceError{Op: "add order items", OrderID: orderID, Err: cause}
}
