package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dwikikusuma/supershop-pos/pkg/money"
)

var ErrInvalidInput = errors.New("invalid input")

// ValidationError names the field that failed and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Entry is a sellable item. ID is zero until the store assigns one.
type Entry struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	UnitPrice money.Cents `json:"unit_price"`
	VATRate   money.Rate  `json:"vat_rate"`
	Category  string      `json:"category"`
	Stock     int         `json:"stock"`
	Barcode   string      `json:"barcode"`
}

// NewEntry trims text fields and returns the entry only if every field is valid.
func NewEntry(id int64, name string, unitPrice money.Cents, vatRate money.Rate, category string, stock int, barcode string) (Entry, error) {
	e := Entry{
		ID:        id,
		Name:      strings.TrimSpace(name),
		UnitPrice: unitPrice,
		VATRate:   vatRate,
		Category:  strings.TrimSpace(category),
		Stock:     stock,
		Barcode:   strings.TrimSpace(barcode),
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (e Entry) Validate() error {
	switch {
	case e.ID < 0:
		return Invalid("id", "must not be negative")
	case strings.TrimSpace(e.Name) == "":
		return Invalid("name", "must not be empty")
	case e.UnitPrice < 0:
		return Invalid("unit_price", "must not be negative")
	case e.VATRate < 0:
		return Invalid("vat_rate", "must not be negative")
	case strings.TrimSpace(e.Category) == "":
		return Invalid("category", "must not be empty")
	case e.Stock < 0:
		return Invalid("stock", "must not be negative")
	case strings.TrimSpace(e.Barcode) == "":
		return Invalid("barcode", "must not be empty")
	}
	if _, err := e.VATRate.CheckedApply(e.UnitPrice); err != nil {
		return Invalid("unit_price", "out of range for its VAT rate")
	}
	return nil
}

// Available reports whether the entry can be sold at all.
func (e Entry) Available() bool {
	return e.Stock > 0
}
