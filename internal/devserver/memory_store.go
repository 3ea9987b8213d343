package devserver

import (
	"context"
	"sync"

	"github.com/Mohsen-it/beauty-store-sub000/internal/domain"
)

// MemoryStore implements CartStore with in-memory storage.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]*domain.Cart)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cart, exists := s.carts[sessionID]
	if !exists {
		return nil, ErrCartNotFound
	}
	return cloneCart(cart), nil
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[sessionID] = cloneCart(cart)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

func cloneCart(cart *domain.Cart) *domain.Cart {
	out := *cart
	out.Items = make([]domain.CartLine, len(cart.Items))
	copy(out.Items, cart.Items)
	return &out
}
