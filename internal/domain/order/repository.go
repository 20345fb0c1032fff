package order

import (
	"context"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter keys understood by OrderRepository
const (
	FilterStatus   = "status"
	FilterBuyerID  = "buyer_id"
	FilterFarmerID = "farmer_id"
)

// OrderRepository persists orders with their items
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, int64, error)
	// Create inserts a new order and its items
	Create(ctx context.Context, o *Order) error
	// Save updates header fields with an optimistic version check
	Save(ctx context.Context, o *Order) error
	CountByStatus(ctx context.Context, farmerID *uuid.UUID) (map[Status]int64, error)
	// SumRevenue totals non-cancelled orders; a nil farmer sums the platform
	SumRevenue(ctx context.Context, farmerID *uuid.UUID) (decimal.Decimal, error)
	ExistsForProduct(ctx context.Context, productID uuid.UUID) (bool, error)
	FindRecent(ctx context.Context, farmerID uuid.UUID, limit int) ([]Order, error)
}
