package domain

import (
	"strings"
	"time"

	catalog "github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
	"github.com/dwikikusuma/supershop-pos/pkg/money"
)

// UncommittedID marks an order that has not been stored yet.
const UncommittedID int64 = -1

const DefaultThankYouMessage = "TACK FÖR DITT KÖP!"

type Order struct {
	ID              int64       `json:"id"`
	ReceiptNumber   int64       `json:"receipt_number"`
	CreatedAt       time.Time   `json:"created_at"`
	TotalPrice      money.Cents `json:"total_price"`
	TotalVAT        money.Cents `json:"total_vat"`
	ThankYouMessage string      `json:"thank_you_message"`
	Items           []OrderItem `json:"items"`
}

// NewOrder builds an uncommitted header. A blank thank-you message falls
// back to DefaultThankYouMessage.
func NewOrder(totalPrice, totalVAT money.Cents, thankYou string, at time.Time) (Order, error) {
	thankYou = strings.TrimSpace(thankYou)
	if thankYou == "" {
		thankYou = DefaultThankYouMessage
	}

	o := Order{
		ID:              UncommittedID,
		CreatedAt:       at,
		TotalPrice:      totalPrice,
		TotalVAT:        totalVAT,
		ThankYouMessage: thankYou,
	}
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (o Order) Validate() error {
	switch {
	case o.TotalPrice < 0:
		return catalog.Invalid("total_price", "must not be negative")
	case o.TotalVAT < 0:
		return catalog.Invalid("total_vat", "must not be negative")
	case strings.TrimSpace(o.ThankYouMessage) == "":
		return catalog.Invalid("thank_you_message", "must not be empty")
	case o.CreatedAt.IsZero():
		return catalog.Invalid("created_at", "must be set")
	}
	return nil
}

func (o Order) Committed() bool {
	return o.ID > 0
}

func (o Order) GrandTotal() money.Cents {
	return o.TotalPrice + o.TotalVAT
}

// OrderItem is the frozen record of one cart line. Position keeps the cart
// order so a receipt lists items the way they were rung up.
type OrderItem struct {
	OrderID   int64       `json:"order_id"`
	Position  int         `json:"position"`
	ProductID int64       `json:"product_id"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	UnitPrice money.Cents `json:"unit_price"`
	Subtotal  money.Cents `json:"subtotal"`
	VATRate   money.Rate  `json:"vat_rate"`
}

// VAT is rounded half-up for this item alone, the same rule the cart uses.
func (i OrderItem) VAT() money.Cents {
	return i.VATRate.Apply(i.Subtotal)
}

func (i OrderItem) Validate() error {
	switch {
	case i.ProductID <= 0:
		return catalog.Invalid("product_id", "must be positive")
	case strings.TrimSpace(i.Name) == "":
		return catalog.Invalid("name", "must not be empty")
	case i.Quantity <= 0:
		return catalog.Invalid("quantity", "must be greater than zero")
	case i.UnitPrice < 0:
		return catalog.Invalid("unit_price", "must not be negative")
	case i.VATRate < 0:
		return catalog.Invalid("vat_rate", "must not be negative")
	}
	sub, err := i.UnitPrice.CheckedMul(i.Quantity)
	if err != nil || sub != i.Subtotal {
		return catalog.Invalid("subtotal", "does not equal unit price times quantity")
	}
	if _, err := i.VATRate.CheckedApply(sub); err != nil {
		return catalog.Invalid("subtotal", "out of range for its VAT rate")
	}
	return nil
}
