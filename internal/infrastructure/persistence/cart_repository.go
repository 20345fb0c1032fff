package persistence

import (
	"context"

	"github.com/farmmarket/backend/internal/domain/cart"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCartRepository implements cart.CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByBuyer loads the buyer's cart with its lines
func (r *GormCartRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*cart.Cart, error) {
	var c cart.Cart
	if err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_name ASC, variant_name ASC")
		}).
		Where("buyer_id = ?", buyerID).
		First(&c).Error; err != nil {
		return nil, translate(err)
	}
	c.MarkPersisted()
	return &c, nil
}

// Save writes the cart header and replaces its lines
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	return transact(ctx, r.db, func(tx *gorm.DB) error {
		if err := saveAggregate(tx, c); err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", c.ID).Delete(&cart.CartItem{}).Error; err != nil {
			return err
		}
		if len(c.Items) == 0 {
			return nil
		}
		for i := range c.Items {
			c.Items[i].CartID = c.ID
		}
		return translate(tx.Create(&c.Items).Error)
	})
}

// DeleteByBuyer removes the buyer's cart and its lines
func (r *GormCartRepository) DeleteByBuyer(ctx context.Context, buyerID uuid.UUID) error {
	return transact(ctx, r.db, func(tx *gorm.DB) error {
		cartIDs := tx.Model(&cart.Cart{}).Select("id").Where("buyer_id = ?", buyerID)
		if err := tx.Where("cart_id IN (?)", cartIDs).Delete(&cart.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Where("buyer_id = ?", buyerID).Delete(&cart.Cart{}).Error
	})
}

// Ensure GormCartRepository implements CartRepository
var _ cart.CartRepository = (*GormCartRepository)(nil)
