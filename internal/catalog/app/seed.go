package app

import (
	"github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
	"github.com/dwikikusuma/supershop-pos/pkg/money"
)

// DefaultEntries is the starter assortment loaded when SEED_CATALOG is on.
func DefaultEntries() []domain.Entry {
	return []domain.Entry{
		{Name: "Milk", UnitPrice: money.MustParse("12.50"), VATRate: money.MustParseRate("0.12"), Category: "Dairy", Stock: 50, Barcode: "123456789012"},
		{Name: "Bread", UnitPrice: money.MustParse("25.00"), VATRate: money.MustParseRate("0.12"), Category: "Bakery", Stock: 30, Barcode: "234567890123"},
		{Name: "Laptop", UnitPrice: money.MustParse("9999.99"), VATRate: money.MustParseRate("0.25"), Category: "Electronics", Stock: 5, Barcode: "345678901234"},
	}
}
