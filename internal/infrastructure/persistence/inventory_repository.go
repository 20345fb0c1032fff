package persistence

import (
	"context"

	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockRepository implements inventory.StockRepository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// FindByID finds a stock item by ID
func (r *GormStockRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockItem, error) {
	var item inventory.StockItem
	if err := conn(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	item.MarkPersisted()
	return &item, nil
}

// FindByVariant finds the stock item of a variant
func (r *GormStockRepository) FindByVariant(ctx context.Context, variantID uuid.UUID) (*inventory.StockItem, error) {
	var item inventory.StockItem
	if err := conn(ctx, r.db).Where("variant_id = ?", variantID).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	item.MarkPersisted()
	return &item, nil
}

// FindByVariantsForUpdate locks the rows in variant order for the rest of
// the transaction so concurrent checkouts serialize on shared variants
func (r *GormStockRepository) FindByVariantsForUpdate(ctx context.Context, variantIDs []uuid.UUID) ([]inventory.StockItem, error) {
	if len(variantIDs) == 0 {
		return []inventory.StockItem{}, nil
	}
	var items []inventory.StockItem
	if err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("variant_id IN ?", variantIDs).
		Order("variant_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	markLoaded(items)
	return items, nil
}

// FindByVariants loads the stock items of the given variants
func (r *GormStockRepository) FindByVariants(ctx context.Context, variantIDs []uuid.UUID) ([]inventory.StockItem, error) {
	if len(variantIDs) == 0 {
		return []inventory.StockItem{}, nil
	}
	var items []inventory.StockItem
	if err := conn(ctx, r.db).Where("variant_id IN ?", variantIDs).Find(&items).Error; err != nil {
		return nil, err
	}
	markLoaded(items)
	return items, nil
}

func lowStockCondition(db *gorm.DB) *gorm.DB {
	return db.Where("low_stock_threshold > 0 AND quantity <= low_stock_threshold")
}

// FindByFarmer lists a farmer's stock items, optionally only those running low
func (r *GormStockRepository) FindByFarmer(ctx context.Context, farmerID uuid.UUID, lowStockOnly bool) ([]inventory.StockItem, error) {
	query := conn(ctx, r.db).Where("farmer_id = ?", farmerID)
	if lowStockOnly {
		query = query.Scopes(lowStockCondition)
	}
	var items []inventory.StockItem
	if err := query.Order("product_id ASC, created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	markLoaded(items)
	return items, nil
}

// CountLowStock counts a farmer's items at or below their threshold
func (r *GormStockRepository) CountLowStock(ctx context.Context, farmerID uuid.UUID) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&inventory.StockItem{}).
		Where("farmer_id = ?", farmerID).
		Scopes(lowStockCondition).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save writes the item with an optimistic version check and appends the movements
func (r *GormStockRepository) Save(ctx context.Context, item *inventory.StockItem, movements ...*inventory.StockMovement) error {
	return transact(ctx, r.db, func(tx *gorm.DB) error {
		if err := saveAggregate(tx, item); err != nil {
			return err
		}
		for _, m := range movements {
			if m == nil {
				continue
			}
			if err := tx.Create(m).Error; err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

// Create inserts a new stock item
func (r *GormStockRepository) Create(ctx context.Context, item *inventory.StockItem) error {
	if err := conn(ctx, r.db).Create(item).Error; err != nil {
		return translate(err)
	}
	item.MarkPersisted()
	return nil
}

// DeleteByProduct removes the stock items of a product. The movement ledger is kept.
func (r *GormStockRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	return conn(ctx, r.db).Where("product_id = ?", productID).Delete(&inventory.StockItem{}).Error
}

// ListMovements pages through a farmer's stock ledger, newest first
func (r *GormStockRepository) ListMovements(ctx context.Context, farmerID uuid.UUID, filter inventory.MovementFilter) ([]inventory.StockMovement, int64, error) {
	query := conn(ctx, r.db).Model(&inventory.StockMovement{}).Where("farmer_id = ?", farmerID)
	if filter.StockItemID != nil {
		query = query.Where("stock_item_id = ?", *filter.StockItemID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	var movements []inventory.StockMovement
	if err := query.
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// Ensure GormStockRepository implements StockRepository
var _ inventory.StockRepository = (*GormStockRepository)(nil)
