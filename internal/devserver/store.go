package devserver

import (
	"context"
	"errors"

	"github.com/Mohsen-it/beauty-store-sub000/internal/domain"
)

// CartStore holds session carts for the reference backend. Implementations:
// in-memory for tests, Redis for a shared dev environment.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Put(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCartNotFound = errors.New("cart not found")
