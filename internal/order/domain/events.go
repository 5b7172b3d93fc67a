package domain

import (
	"time"

	"github.com/dwikikusuma/supershop-pos/pkg/money"
)

// OrderCommitted is published once an order and all of its items are stored.
type OrderCommitted struct {
	OrderID       int64       `json:"order_id"`
	ReceiptNumber int64       `json:"receipt_number"`
	TotalPrice    money.Cents `json:"total_price"`
	TotalVAT      money.Cents `json:"total_vat"`
	GrandTotal    money.Cents `json:"grand_total"`
	ItemCount     int         `json:"item_count"`
	CommittedAt   time.Time   `json:"committed_at"`
}

func NewOrderCommitted(o Order) OrderCommitted {
	return OrderCommitted{
		OrderID:       o.ID,
		ReceiptNumber: o.ReceiptNumber,
		TotalPrice:    o.TotalPrice,
		TotalVAT:      o.TotalVAT,
		GrandTotal:    o.GrandTotal(),
		ItemCount:     len(o.Items),
		CommittedAt:   o.CreatedAt,
	}
}
