package cart

import (
	"context"

	"github.com/google/uuid"
)

// CartRepository persists carts with their lines
type CartRepository interface {
	FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*Cart, error)
	// Save replaces the cart lines with the current set
	Save(ctx context.Context, cart *Cart) error
	DeleteByBuyer(ctx context.Context, buyerID uuid.UUID) error
}
