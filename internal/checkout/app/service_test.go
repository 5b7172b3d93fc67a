package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	cartdomain "github.com/dwikikusuma/supershop-pos/internal/cart/domain"
	catalog "github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
	"github.com/dwikikusuma/supershop-pos/internal/checkout/app"
	orderdomain "github.com/dwikikusuma/supershop-pos/internal/order/domain"
	"github.com/dwikikusuma/supershop-pos/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	milk   = catalog.Entry{ID: 1, Name: "Milk", UnitPrice: money.MustParse("12.50"), VATRate: money.MustParseRate("0.12"), Category: "Dairy", Stock: 50, Barcode: "123456789012"}
	bread  = catalog.Entry{ID: 2, Name: "Bread", UnitPrice: money.MustParse("25.00"), VATRate: money.MustParseRate("0.12"), Category: "Bakery", Stock: 30, Barcode: "234567890123"}
	laptop = catalog.Entry{ID: 3, Name: "Laptop", UnitPrice: money.MustParse("9999.99"), VATRate: money.MustParseRate("0.25"), Category: "Electronics", Stock: 5, Barcode: "345678901234"}

	fixedNow = time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)
)

type fakeStore struct {
	mu sync.Mutex

	createErr error
	addErr    func(orderdomain.OrderItem) error
	deleteErr error
	onCreate  func()

	creates, adds, deletes, gets int
	addCtxErrs                   []error

	nextID  int64
	headers map[int64]orderdomain.Order
	items   map[int64][]orderdomain.OrderItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		headers: make(map[int64]orderdomain.Order),
		items:   make(map[int64][]orderdomain.OrderItem),
	}
}

func (f *fakeStore) CreateOrderHeader(ctx context.Context, o orderdomain.Order) (orderdomain.Order, error) {
	f.mu.Lock()
	f.creates++
	hook := f.onCreate
	if f.createErr != nil {
		f.mu.Unlock()
		return orderdomain.Order{}, f.createErr
	}
	f.nextID++
	o.ID = f.nextID
	o.ReceiptNumber = 1000 + f.nextID
	f.headers[o.ID] = o
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return o, nil
}

func (f *fakeStore) AddOrderItem(ctx context.Context, it orderdomain.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds++
	f.addCtxErrs = append(f.addCtxErrs, ctx.Err())
	if f.addErr != nil {
		if err := f.addErr(it); err != nil {
			return err
		}
	}
	f.items[it.OrderID] = append(f.items[it.OrderID], it)
	return nil
}

func (f *fakeStore) DeleteOrderHeader(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.headers, id)
	delete(f.items, id)
	return nil
}

func (f *fakeStore) GetOrder(ctx context.Context, id int64) (orderdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	o, ok := f.headers[id]
	if !ok {
		return orderdomain.Order{}, errors.New("order not found")
	}
	o.Items = append([]orderdomain.OrderItem(nil), f.items[id]...)
	return o, nil
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates + f.adds + f.deletes + f.gets
}

type fakeIdem struct {
	mu   sync.Mutex
	keys map[string]int64
}

func (f *fakeIdem) Lookup(_ context.Context, key string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.keys[key]
	return id, ok, nil
}

func (f *fakeIdem) Remember(_ context.Context, key string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = id
	return nil
}

type fakePublisher struct {
	err    error
	events []orderdomain.OrderCommitted
}

func (f *fakePublisher) PublishOrderCommitted(_ context.Context, ev orderdomain.OrderCommitted) error {
	f.events = append(f.events, ev)
	return f.err
}

func newService(store *fakeStore, opts app.Options) *app.Service {
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.Now = func() time.Time { return fixedNow }
	return app.NewService(store, opts)
}

func cartWith(t *testing.T, lines ...cartdomain.Line) *cartdomain.Cart {
	t.Helper()
	c := cartdomain.New("till-1")
	for _, l := range lines {
		require.NoError(t, c.AddItem(l.Entry, l.Quantity))
	}
	return c
}

func TestCheckout_EmptyCart(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, app.Options{})

	_, err := svc.Checkout(context.Background(), cartdomain.New("till-1"), "")

	assert.ErrorIs(t, err, app.ErrEmptyCart)
	assert.Zero(t, store.calls(), "empty cart must not reach the store")
}

func TestCheckout_MilkScenario(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newService(store, app.Options{Publisher: pub})
	c := cartWith(t, cartdomain.Line{Entry: milk, Quantity: 2})
	before := c.Totals()

	order, err := svc.Checkout(context.Background(), c, "")
	require.NoError(t, err)

	assert.True(t, order.Committed())
	assert.Equal(t, before.Subtotal, order.TotalPrice)
	assert.Equal(t, before.VAT, order.TotalVAT)
	assert.Equal(t, "28.00", order.GrandTotal().String())
	assert.Equal(t, orderdomain.DefaultThankYouMessage, order.ThankYouMessage)
	assert.Equal(t, fixedNow, order.CreatedAt)
	assert.Zero(t, c.Len(), "cart is cleared after commit")

	require.Len(t, order.Items, 1)
	assert.Equal(t, "Milk", order.Items[0].Name)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, order.ID, order.Items[0].OrderID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, order.ID, pub.events[0].OrderID)
	assert.Equal(t, money.MustParse("28.00"), pub.events[0].GrandTotal)
}

func TestCheckout_ItemsKeepCartOrder(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, app.Options{ItemConcurrency: 3, ThankYouMessage: "Welcome back"})
	c := cartWith(t,
		cartdomain.Line{Entry: laptop, Quantity: 1},
		cartdomain.Line{Entry: milk, Quantity: 3},
		cartdomain.Line{Entry: bread, Quantity: 2},
	)

	order, err := svc.Checkout(context.Background(), c, "")
	require.NoError(t, err)

	assert.Equal(t, "Welcome back", order.ThankYouMessage)
	require.Len(t, order.Items, 3)
	for i, want := range []string{"Laptop", "Milk", "Bread"} {
		assert.Equal(t, want, order.Items[i].Name)
		assert.Equal(t, i, order.Items[i].Position)
	}
}

func TestCheckout_HeaderFailure(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("connection refused")
	svc := newService(store, app.Options{})
	c := cartWith(t, cartdomain.Line{Entry: milk, Quantity: 1})

	_, err := svc.Checkout(context.Background(), c, "")

	var pe *app.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, app.ErrPersistence)
	assert.ErrorContains(t, err, "connection refused")
	assert.Zero(t, store.adds, "no items after a failed header")
	assert.Zero(t, store.deletes)
	assert.Equal(t, 1, c.Len(), "cart is untouched")
}

func TestCheckout_ItemFailureCompensates(t *testing.T) {
	store := newFakeStore()
	boom := errors.New("disk full")
	store.addErr = func(it orderdomain.OrderItem) error {
		if it.Name == "Bread" {
			return boom
		}
		return nil
	}
	pub := &fakePublisher{}
	svc := newService(store, app.Options{Publisher: pub})
	c := cartWith(t,
		cartdomain.Line{Entry: milk, Quantity: 1},
		cartdomain.Line{Entry: bread, Quantity: 1},
	)

	_, err := svc.Checkout(context.Background(), c, "")

	var pe *app.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, app.ErrIntegrity)
	assert.Equal(t, int64(1), pe.OrderID)
	assert.Equal(t, 1, store.deletes, "header deleted exactly once")
	assert.Empty(t, store.headers)
	assert.Empty(t, store.items)
	assert.Equal(t, 2, c.Len(), "cart is untouched")
	assert.Empty(t, pub.events)
}

func TestCheckout_FailedCompensationIsIntegrityError(t *testing.T) {
	store := newFakeStore()
	store.addErr = func(orderdomain.OrderItem) error { return errors.New("timeout") }
	store.deleteErr = errors.New("connection reset")
	svc := newService(store, app.Options{})
	c := cartWith(t, cartdomain.Line{Entry: milk, Quantity: 1})

	_, err := svc.Checkout(context.Background(), c, "")

	var ie *app.IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.ErrorIs(t, err, app.ErrIntegrity)
	assert.Equal(t, int64(1), ie.OrderID)
	assert.ErrorContains(t, ie.CompensationErr, "connection reset")
	assert.Equal(t, 1, store.deletes)
	assert.Equal(t, 1, c.Len())
}

func TestCheckout_CancellationAfterHeaderIsIgnored(t *testing.T) {
	store := newFakeStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.onCreate = cancel
	svc := newService(store, app.Options{})
	c := cartWith(t,
		cartdomain.Line{Entry: milk, Quantity: 1},
		cartdomain.Line{Entry: bread, Quantity: 1},
	)

	order, err := svc.Checkout(ctx, c, "")
	require.NoError(t, err)

	assert.Len(t, order.Items, 2)
	for _, e := range store.addCtxErrs {
		assert.NoError(t, e, "item writes must not see the caller's cancellation")
	}
	assert.Zero(t, store.deletes)
}

func TestCheckout_CancelledBeforeHeader(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, app.Options{})
	c := cartWith(t, cartdomain.Line{Entry: milk, Quantity: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Checkout(ctx, c, "")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.calls())
	assert.Equal(t, 1, c.Len())
}

func TestCheckout_IdempotentReplay(t *testing.T) {
	store := newFakeStore()
	idem := &fakeIdem{keys: make(map[string]int64)}
	svc := newService(store, app.Options{Idempotency: idem})
	c := cartWith(t, cartdomain.Line{Entry: milk, Quantity: 2})

	first, err := svc.Checkout(context.Background(), c, "key-1")
	require.NoError(t, err)

	// the operator scans more goods before the retry arrives
	require.NoError(t, c.AddItem(bread, 1))

	again, err := svc.Checkout(context.Background(), c, "key-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.ReceiptNumber, again.ReceiptNumber)
	assert.Equal(t, 1, store.creates, "replay writes nothing")
	assert.Equal(t, 1, c.Len(), "replay leaves the cart alone")
}

func TestCheckout_IdempotencyKeyIsPerCart(t *testing.T) {
	store := newFakeStore()
	idem := &fakeIdem{keys: make(map[string]int64)}
	svc := newService(store, app.Options{Idempotency: idem})

	first := cartWith(t, cartdomain.Line{Entry: milk, Quantity: 2})
	res, err := svc.Commit(context.Background(), first, "key-1")
	require.NoError(t, err)
	assert.False(t, res.Replayed)

	other := cartdomain.New("till-2")
	require.NoError(t, other.AddItem(laptop, 1))
	res2, err := svc.Commit(context.Background(), other, "key-1")
	require.NoError(t, err)

	assert.False(t, res2.Replayed, "a key from another cart is not a replay")
	assert.NotEqual(t, res.Order.ID, res2.Order.ID)
	assert.Equal(t, laptop.UnitPrice, res2.Order.TotalPrice)
	assert.Zero(t, other.Len())

	again, err := svc.Commit(context.Background(), first, "key-1")
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, res.Order.ID, again.Order.ID)
}

func TestCheckout_KeepsLinesScannedDuringCommit(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, app.Options{})
	c := cartWith(t, cartdomain.Line{Entry: milk, Quantity: 2})

	store.onCreate = func() {
		require.NoError(t, c.AddItem(bread, 1))
		require.NoError(t, c.AddItem(milk, 1))
	}

	order, err := svc.Checkout(context.Background(), c, "")
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, money.MustParse("25.00"), order.TotalPrice)

	lines := c.Lines()
	require.Len(t, lines, 2, "units scanned mid-commit stay in the cart")
	assert.Equal(t, "Milk", lines[0].Entry.Name)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.Equal(t, "Bread", lines[1].Entry.Name)
	assert.Equal(t, 1, lines[1].Quantity)
}

func TestCheckout_ConcurrentCheckoutsSerialise(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, app.Options{})
	c := cartWith(t, cartdomain.Line{Entry: milk, Quantity: 1})

	const N = 8
	errs := make([]error, N)
	var wg sync.WaitGroup
	for i := 0; i < N; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Checkout(context.Background(), c, "")
		}()
	}
	wg.Wait()

	var ok, empty int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, app.ErrEmptyCart):
			empty++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, N-1, empty)
	assert.Equal(t, 1, store.creates)
}

func TestCheckout_PublishFailureIsNotFatal(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newService(store, app.Options{Publisher: pub})
	c := cartWith(t, cartdomain.Line{Entry: milk, Quantity: 1})

	order, err := svc.Checkout(context.Background(), c, "")
	require.NoError(t, err)
	assert.True(t, order.Committed())
	assert.Len(t, pub.events, 1)
	assert.Zero(t, c.Len())
}

func TestQuote(t *testing.T) {
	svc := newService(newFakeStore(), app.Options{})
	c := cartWith(t, cartdomain.Line{Entry: milk, Quantity: 2}, cartdomain.Line{Entry: laptop, Quantity: 1})

	q := svc.Quote(c)
	assert.Equal(t, c.GrandTotal(), q.Total)
	assert.Len(t, q.Lines, 2)
	assert.Equal(t, 2, c.Len(), "quoting does not mutate")
}
