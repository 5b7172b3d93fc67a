package app

import (
	"context"

	"github.com/dwikikusuma/supershop-pos/internal/cart/domain"
	catalog "github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
)

type CatalogReader interface {
	GetEntry(ctx context.Context, id int64) (catalog.Entry, error)
}

// CartStore holds the open carts of this process, keyed by session id.
type CartStore interface {
	Put(cart *domain.Cart)
	Get(id string) (*domain.Cart, bool)
	Delete(id string)
}
