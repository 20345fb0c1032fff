package persistence

import (
	"context"

	"github.com/farmmarket/backend/internal/domain/order"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("product_name ASC, variant_name ASC")
	})
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := conn(ctx, r.db).Scopes(preloadItems).First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	o.MarkPersisted()
	return &o, nil
}

// FindByNumber finds an order by its public number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	var o order.Order
	if err := conn(ctx, r.db).Scopes(preloadItems).Where("order_number = ?", number).First(&o).Error; err != nil {
		return nil, translate(err)
	}
	o.MarkPersisted()
	return &o, nil
}

// FindAll lists orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, int64, error) {
	filter = filter.Normalize()
	query := conn(ctx, r.db).Model(&order.Order{})

	if status, ok := filter.Filters[order.FilterStatus]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if buyerID, ok := filter.Filters[order.FilterBuyerID]; ok {
		query = query.Where("buyer_id = ?", buyerID)
	}
	if farmerID, ok := filter.Filters[order.FilterFarmerID]; ok {
		query = query.Where("farmer_id = ?", farmerID)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(order_number) LIKE ?", likePattern(filter.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []order.Order
	if err := applyPaging(query.Scopes(preloadItems), filter, OrderSortFields, "created_at").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	markLoaded(orders)
	return orders, total, nil
}

// Create inserts a new order and its items
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	if err := conn(ctx, r.db).Create(o).Error; err != nil {
		return translate(err)
	}
	o.MarkPersisted()
	return nil
}

// Save updates header fields with an optimistic version check
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return saveAggregate(conn(ctx, r.db), o)
}

// CountByStatus counts orders per status; a nil farmer counts the platform
func (r *GormOrderRepository) CountByStatus(ctx context.Context, farmerID *uuid.UUID) (map[order.Status]int64, error) {
	query := conn(ctx, r.db).Model(&order.Order{})
	if farmerID != nil {
		query = query.Where("farmer_id = ?", *farmerID)
	}
	var rows []struct {
		Status order.Status
		Count  int64
	}
	if err := query.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[order.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// SumRevenue totals non-cancelled orders; a nil farmer sums the platform
func (r *GormOrderRepository) SumRevenue(ctx context.Context, farmerID *uuid.UUID) (decimal.Decimal, error) {
	query := conn(ctx, r.db).Model(&order.Order{}).Where("status <> ?", order.StatusCancelled)
	if farmerID != nil {
		query = query.Where("farmer_id = ?", *farmerID)
	}
	var row struct {
		Revenue decimal.NullDecimal
	}
	if err := query.Select("SUM(total) AS revenue").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	if !row.Revenue.Valid {
		return decimal.Zero, nil
	}
	return row.Revenue.Decimal, nil
}

// ExistsForProduct reports whether any order references the product
func (r *GormOrderRepository) ExistsForProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&order.Item{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindRecent returns a farmer's latest orders
func (r *GormOrderRepository) FindRecent(ctx context.Context, farmerID uuid.UUID, limit int) ([]order.Order, error) {
	if limit < 1 {
		limit = 5
	}
	var orders []order.Order
	if err := conn(ctx, r.db).Scopes(preloadItems).
		Where("farmer_id = ?", farmerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	markLoaded(orders)
	return orders, nil
}

// Ensure GormOrderRepository implements OrderRepository
var _ order.OrderRepository = (*GormOrderRepository)(nil)
