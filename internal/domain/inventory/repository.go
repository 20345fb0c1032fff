package inventory

import (
	"context"

	"github.com/google/uuid"
)

// StockRepository persists stock items and their ledger
type StockRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockItem, error)
	FindByVariant(ctx context.Context, variantID uuid.UUID) (*StockItem, error)
	// FindByVariantsForUpdate locks the rows for the rest of the transaction
	FindByVariantsForUpdate(ctx context.Context, variantIDs []uuid.UUID) ([]StockItem, error)
	FindByVariants(ctx context.Context, variantIDs []uuid.UUID) ([]StockItem, error)
	FindByFarmer(ctx context.Context, farmerID uuid.UUID, lowStockOnly bool) ([]StockItem, error)
	CountLowStock(ctx context.Context, farmerID uuid.UUID) (int64, error)
	// Save writes the item (optimistic version check) and appends movements
	Save(ctx context.Context, item *StockItem, movements ...*StockMovement) error
	Create(ctx context.Context, item *StockItem) error
	DeleteByProduct(ctx context.Context, productID uuid.UUID) error
	ListMovements(ctx context.Context, farmerID uuid.UUID, filter MovementFilter) ([]StockMovement, int64, error)
}
