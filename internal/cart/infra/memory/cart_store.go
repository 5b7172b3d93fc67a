package memory

import (
	"sync"

	"github.com/dwikikusuma/supershop-pos/internal/cart/domain"
)

type CartStore struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]*domain.Cart)}
}

func (s *CartStore) Put(cart *domain.Cart) {
	s.mu.Lock()
	s.carts[cart.ID()] = cart
	s.mu.Unlock()
}

func (s *CartStore) Get(id string) (*domain.Cart, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cart, ok := s.carts[id]
	return cart, ok
}

func (s *CartStore) Delete(id string) {
	s.mu.Lock()
	delete(s.carts, id)
	s.mu.Unlock()
}
