package app

import (
	"context"
	"errors"
	"strings"

	"github.com/dwikikusuma/supershop-pos/internal/cart/domain"
	catalog "github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
	"github.com/google/uuid"
)

var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrInsufficientStock = domain.ErrInsufficientStock
	ErrInvalidInput      = catalog.ErrInvalidInput
)

type Service struct {
	catalog CatalogReader
	carts   CartStore
}

func NewService(catalog CatalogReader, carts CartStore) *Service {
	return &Service{
		catalog: catalog,
		carts:   carts,
	}
}

// Open starts a new till session with an empty cart.
func (s *Service) Open(ctx context.Context) *domain.Cart {
	cart := domain.New(uuid.NewString())
	s.carts.Put(cart)
	return cart
}

func (s *Service) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, catalog.Invalid("cart_id", "must not be empty")
	}
	cart, ok := s.carts.Get(cartID)
	if !ok {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

// AddItem looks the entry up at its current price and adds it to the cart,
// refusing quantities beyond the entry's stock.
func (s *Service) AddItem(ctx context.Context, cartID string, entryID int64, qty int) (*domain.Cart, error) {
	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, catalog.Invalid("quantity", "must be greater than zero")
	}

	entry, err := s.catalog.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if err := cart.AddItemInStock(entry, qty); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) RemoveItem(ctx context.Context, cartID string, index int) (*domain.Cart, error) {
	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := cart.RemoveItem(index); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) Clear(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	cart.Clear()
	return cart, nil
}

// Close ends the session and forgets its cart.
func (s *Service) Close(ctx context.Context, cartID string) error {
	if _, err := s.Get(ctx, cartID); err != nil {
		return err
	}
	s.carts.Delete(cartID)
	return nil
}
