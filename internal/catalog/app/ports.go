package app

import (
	"context"

	"github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
)

type EntryRepo interface {
	// Create inserts the entry, or updates the existing one with the same barcode.
	Create(ctx context.Context, e domain.Entry) (domain.Entry, error)
	FindByID(ctx context.Context, id int64) (domain.Entry, error)
	// ListAvailable returns entries with stock above zero, ordered by ID.
	ListAvailable(ctx context.Context) ([]domain.Entry, error)
}
