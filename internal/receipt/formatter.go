// Package receipt renders committed orders as fixed-width till receipts.
package receipt

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dwikikusuma/supershop-pos/internal/order/domain"
	"github.com/dwikikusuma/supershop-pos/pkg/money"
)

const (
	DefaultShopName   = "STEFANS SUPERSHOP"
	DefaultTimeLayout = "2006-01-02 15:04:05"

	qtyWidth   = 3
	moneyWidth = 10
	labelWidth = 12
)

var ErrFormatting = errors.New("cannot format receipt")

type FormattingError struct {
	Reason string
}

func (e *FormattingError) Error() string { return "cannot format receipt: " + e.Reason }

func (e *FormattingError) Unwrap() error { return ErrFormatting }

type Options struct {
	ShopName   string
	NameWidth  int
	Location   *time.Location
	TimeLayout string
}

type Formatter struct {
	shopName   string
	nameWidth  int
	location   *time.Location
	timeLayout string
	width      int
}

func New(opts Options) *Formatter {
	f := &Formatter{
		shopName:   opts.ShopName,
		nameWidth:  opts.NameWidth,
		location:   opts.Location,
		timeLayout: opts.TimeLayout,
	}
	if strings.TrimSpace(f.shopName) == "" {
		f.shopName = DefaultShopName
	}
	if f.nameWidth <= 0 {
		f.nameWidth = 25
	}
	if f.location == nil {
		f.location = time.UTC
	}
	if f.timeLayout == "" {
		f.timeLayout = DefaultTimeLayout
	}
	// name, qty, " * ", unit, " = ", total
	f.width = f.nameWidth + 1 + qtyWidth + 3 + moneyWidth + 3 + moneyWidth
	return f
}

// Render is pure: the same order and items always give the same bytes.
// Footer totals are recomputed from items rather than read from the header.
func (f *Formatter) Render(order *domain.Order, items []domain.OrderItem) (string, error) {
	if order == nil {
		return "", &FormattingError{Reason: "order is nil"}
	}
	if items == nil {
		return "", &FormattingError{Reason: "items are nil"}
	}

	sep := strings.Repeat("-", f.width)
	lines := make([]string, 0, len(items)+12)

	lines = append(lines,
		f.center(f.shopName),
		sep,
		f.spread(fmt.Sprintf("Receipt no: %d", order.ReceiptNumber), "Date: "+order.CreatedAt.In(f.location).Format(f.timeLayout)),
		sep,
	)

	var subtotal, vat money.Cents
	for _, it := range items {
		lineTotal := it.UnitPrice.Mul(it.Quantity)
		lines = append(lines, fmt.Sprintf("%-*s %*d * %*s = %*s",
			f.nameWidth, truncate(it.Name, f.nameWidth),
			qtyWidth, it.Quantity,
			moneyWidth, it.UnitPrice.String(),
			moneyWidth, lineTotal.String(),
		))
		subtotal += lineTotal
		vat += it.VATRate.Apply(lineTotal)
	}

	lines = append(lines,
		sep,
		f.amount("Subtotal:", subtotal),
		f.amount("VAT:", vat),
		f.amount("Total:", subtotal+vat),
		sep,
		f.center(order.ThankYouMessage),
	)

	return strings.Join(lines, "\n") + "\n", nil
}

func (f *Formatter) amount(label string, c money.Cents) string {
	return fmt.Sprintf("%-*s%*s", labelWidth, label, f.width-labelWidth, c.String())
}

func (f *Formatter) center(s string) string {
	pad := (f.width - utf8.RuneCountInString(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

func (f *Formatter) spread(left, right string) string {
	gap := f.width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
