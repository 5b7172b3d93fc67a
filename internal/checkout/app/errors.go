package app

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart   = errors.New("cart is empty")
	ErrPersistence = errors.New("order could not be stored")
	ErrIntegrity   = errors.New("order needs manual reconciliation")
)

// PersistenceError reports a failed checkout that left nothing behind.
type PersistenceError struct {
	Op      string
	OrderID int64
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.OrderID > 0 {
		return fmt.Sprintf("checkout: %s (order %d): %v", e.Op, e.OrderID, e.Err)
	}
	return fmt.Sprintf("checkout: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// IntegrityError means an item write failed and the header could not be
// removed afterwards. OrderID names the orphan.
type IntegrityError struct {
	OrderID         int64
	Err             error
	CompensationErr error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("checkout: order %d is partially stored: %v; delete failed: %v", e.OrderID, e.Err, e.CompensationErr)
}

func (e *IntegrityError) Unwrap() []error {
	return []error{ErrIntegrity, e.Err, e.CompensationErr}
}
