package domain

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	catalog "github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
	"github.com/dwikikusuma/supershop-pos/pkg/money"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// Line is a frozen copy of a catalog entry plus the requested quantity.
type Line struct {
	Entry    catalog.Entry `json:"entry"`
	Quantity int           `json:"quantity"`

	// seq identifies the line for Consume; merges keep it.
	seq uint64
}

func (l Line) Subtotal() money.Cents {
	return l.Entry.UnitPrice.Mul(l.Quantity)
}

// VAT is rounded half-up for this line alone.
func (l Line) VAT() money.Cents {
	return l.Entry.VATRate.Apply(l.Subtotal())
}

func (l Line) sameEntry(e catalog.Entry) bool {
	if l.Entry.ID != 0 || e.ID != 0 {
		return l.Entry.ID == e.ID
	}
	return l.Entry.Barcode == e.Barcode
}

func (l Line) mergeable(e catalog.Entry) bool {
	return l.sameEntry(e) && l.Entry.UnitPrice == e.UnitPrice && l.Entry.VATRate == e.VATRate
}

type Totals struct {
	Subtotal money.Cents `json:"subtotal"`
	VAT      money.Cents `json:"vat"`
	Grand    money.Cents `json:"grand_total"`
}

// ComputeTotals sums per-line subtotals and per-line rounded VAT.
func ComputeTotals(lines []Line) Totals {
	var t Totals
	for _, l := range lines {
		t.Subtotal += l.Subtotal()
		t.VAT += l.VAT()
	}
	t.Grand = t.Subtotal + t.VAT
	return t
}

// Cart is the uncommitted sale of one till session. All methods are safe
// for concurrent use; totals are derived from the lines on every call.
type Cart struct {
	id string

	mu    sync.Mutex
	lines []Line
	seq   uint64

	checkout sync.Mutex
}

func New(id string) *Cart {
	return &Cart{id: id}
}

func (c *Cart) ID() string { return c.id }

// AddItem merges into an existing line when the entry and its frozen price
// and VAT rate match, otherwise it appends a new line.
func (c *Cart) AddItem(entry catalog.Entry, qty int) error {
	if qty <= 0 {
		return catalog.Invalid("quantity", "must be greater than zero")
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.add(entry, qty)
}

// AddItemInStock is AddItem that also refuses to let the cart hold more
// units of the entry than its stock snapshot.
func (c *Cart) AddItemInStock(entry catalog.Entry, qty int) error {
	if qty <= 0 {
		return catalog.Invalid("quantity", "must be greater than zero")
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	held := 0
	for _, l := range c.lines {
		if l.sameEntry(entry) {
			held += l.Quantity
		}
	}
	if held+qty > entry.Stock {
		return fmt.Errorf("%w: %s has %d in stock, cart would hold %d", ErrInsufficientStock, entry.Name, entry.Stock, held+qty)
	}

	return c.add(entry, qty)
}

// add rejects a line whose amounts, or the cart totals with it, would not
// fit in int64 cents. Every admitted line therefore has exact totals.
func (c *Cart) add(entry catalog.Entry, qty int) error {
	idx := slices.IndexFunc(c.lines, func(l Line) bool { return l.mergeable(entry) })

	t := ComputeTotals(c.lines)
	next := Line{Entry: entry, Quantity: qty}
	if idx >= 0 {
		prev := c.lines[idx]
		if prev.Quantity > math.MaxInt-qty {
			return catalog.Invalid("quantity", "out of range")
		}
		next = prev
		next.Quantity += qty
		t.Subtotal -= prev.Subtotal()
		t.VAT -= prev.VAT()
	}
	if err := checkTotals(t, next); err != nil {
		return catalog.Invalid("quantity", "cart total out of range")
	}

	if idx >= 0 {
		c.lines[idx] = next
		return nil
	}
	c.seq++
	next.seq = c.seq
	c.lines = append(c.lines, next)
	return nil
}

func checkTotals(rest Totals, l Line) error {
	sub, err := l.Entry.UnitPrice.CheckedMul(l.Quantity)
	if err != nil {
		return err
	}
	vat, err := l.Entry.VATRate.CheckedApply(sub)
	if err != nil {
		return err
	}
	if sub, err = rest.Subtotal.CheckedAdd(sub); err != nil {
		return err
	}
	if vat, err = rest.VAT.CheckedAdd(vat); err != nil {
		return err
	}
	_, err = sub.CheckedAdd(vat)
	return err
}

func (c *Cart) RemoveItem(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.lines) {
		return catalog.Invalid("line_index", fmt.Sprintf("%d out of range [0,%d)", index, len(c.lines)))
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return nil
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// Consume takes away the quantities of lines, as returned by an earlier
// Lines call. Lines added since, and units merged into a line since, stay.
func (c *Cart) Consume(lines []Line) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, done := range lines {
		idx := slices.IndexFunc(c.lines, func(l Line) bool { return l.seq == done.seq })
		if idx < 0 {
			continue
		}
		c.lines[idx].Quantity -= done.Quantity
		if c.lines[idx].Quantity <= 0 {
			c.lines = slices.Delete(c.lines, idx, idx+1)
		}
	}
}

// Lines returns a copy in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ComputeTotals(c.lines)
}

func (c *Cart) Subtotal() money.Cents { return c.Totals().Subtotal }

func (c *Cart) VATTotal() money.Cents { return c.Totals().VAT }

func (c *Cart) GrandTotal() money.Cents { return c.Totals().Grand }

// LockCheckout blocks until no other checkout holds this cart and returns
// the matching unlock.
func (c *Cart) LockCheckout() (unlock func()) {
	c.checkout.Lock()
	return c.checkout.Unlock
}
