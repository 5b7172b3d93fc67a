package domain

import (
	cart "github.com/dwikikusuma/supershop-pos/internal/cart/domain"
	order "github.com/dwikikusuma/supershop-pos/internal/order/domain"
	"github.com/dwikikusuma/supershop-pos/pkg/money"
)

// QuoteLine is one cart line priced for commit. Position is the line's
// index in the cart.
type QuoteLine struct {
	Position  int
	EntryID   int64
	Name      string
	Quantity  int
	UnitPrice money.Cents
	LineTotal money.Cents
	VATRate   money.Rate
	VAT       money.Cents
}

// Quote is the priced snapshot a checkout commits. It is computed from the
// lines alone and never from cached cart totals.
type Quote struct {
	Lines    []QuoteLine
	Subtotal money.Cents
	VAT      money.Cents
	Total    money.Cents
}

func NewQuote(lines []cart.Line) Quote {
	q := Quote{Lines: make([]QuoteLine, len(lines))}
	for i, l := range lines {
		ql := QuoteLine{
			Position:  i,
			EntryID:   l.Entry.ID,
			Name:      l.Entry.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Entry.UnitPrice,
			LineTotal: l.Subtotal(),
			VATRate:   l.Entry.VATRate,
			VAT:       l.VAT(),
		}
		q.Lines[i] = ql
		q.Subtotal += ql.LineTotal
		q.VAT += ql.VAT
	}
	q.Total = q.Subtotal + q.VAT
	return q
}

func (q Quote) Empty() bool { return len(q.Lines) == 0 }

// OrderItems freezes every line as an item of the given order.
func (q Quote) OrderItems(orderID int64) []order.OrderItem {
	items := make([]order.OrderItem, len(q.Lines))
	for i, l := range q.Lines {
		items[i] = order.OrderItem{
			OrderID:   orderID,
			Position:  l.Position,
			ProductID: l.EntryID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.LineTotal,
			VATRate:   l.VATRate,
		}
	}
	return items
}
