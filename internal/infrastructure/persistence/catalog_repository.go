package persistence

import (
	"context"
	"time"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) withVariants(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, sku ASC")
	})
}

// FindByID finds a product with its variants
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.withVariants(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	product.MarkPersisted()
	return &product, nil
}

// FindBySlug finds a product by its slug
func (r *GormProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.withVariants(ctx).Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, translate(err)
	}
	product.MarkPersisted()
	return &product, nil
}

// FindByVariantID loads the product owning the variant
func (r *GormProductRepository) FindByVariantID(ctx context.Context, variantID uuid.UUID) (*catalog.Product, error) {
	var variant catalog.ProductVariant
	if err := conn(ctx, r.db).Select("product_id").First(&variant, "id = ?", variantID).Error; err != nil {
		return nil, translate(err)
	}
	return r.FindByID(ctx, variant.ProductID)
}

// FindByIDs loads products with their variants
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var products []catalog.Product
	if err := r.withVariants(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	markLoaded(products)
	return products, nil
}

// FindByFarmer lists a farmer's products
func (r *GormProductRepository) FindByFarmer(ctx context.Context, farmerID uuid.UUID, filter shared.Filter) ([]catalog.Product, int64, error) {
	filter = filter.Normalize()
	query := conn(ctx, r.db).Model(&catalog.Product{}).Where("farmer_id = ?", farmerID)

	if status, ok := filter.Filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(tags) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []catalog.Product
	query = query.Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, sku ASC")
	})
	if err := applyPaging(query, filter, ProductSortFields, "created_at").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	markLoaded(products)
	return products, total, nil
}

type listingRow struct {
	ProductID   uuid.UUID
	FarmerID    uuid.UUID
	FarmName    string
	DisplayName string
	CategoryID  *uuid.UUID
	Name        string
	Slug        string
	Description string
	Unit        string
	Price       decimal.Decimal
	Currency    string
	Organic     bool
	ImageURL    string
	Tags        string
	Rating      decimal.Decimal
	SoldCount   int
	Stock       int
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// ListActiveListings returns every active product of an active farmer with
// the stock summed over its active variants
func (r *GormProductRepository) ListActiveListings(ctx context.Context) ([]catalog.Listing, error) {
	stock := conn(ctx, r.db).Table("stock_items AS s").
		Select("COALESCE(SUM(s.quantity), 0)").
		Joins("JOIN product_variants AS v ON v.id = s.variant_id").
		Where("s.product_id = p.id AND v.active = ?", true)

	var rows []listingRow
	err := conn(ctx, r.db).Table("products AS p").
		Select(`p.id AS product_id, p.farmer_id, u.farm_name, u.display_name, p.category_id,
			p.name, p.slug, p.description, p.unit, p.price, p.currency, p.organic,
			p.image_url, p.tags, p.rating, p.sold_count, p.published_at, p.created_at,
			(?) AS stock`, stock).
		Joins("JOIN users AS u ON u.id = p.farmer_id").
		Where("p.status = ? AND u.status = ?", catalog.ProductStatusActive, identity.UserStatusActive).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	listings := make([]catalog.Listing, 0, len(rows))
	for _, row := range rows {
		farmName := row.FarmName
		if farmName == "" {
			farmName = row.DisplayName
		}
		publishedAt := row.CreatedAt
		if row.PublishedAt != nil {
			publishedAt = *row.PublishedAt
		}
		listings = append(listings, catalog.Listing{
			ProductID:   row.ProductID,
			FarmerID:    row.FarmerID,
			FarmName:    farmName,
			CategoryID:  row.CategoryID,
			Name:        row.Name,
			Slug:        row.Slug,
			Description: row.Description,
			Unit:        row.Unit,
			Price:       row.Price,
			Currency:    row.Currency,
			Organic:     row.Organic,
			ImageURL:    row.ImageURL,
			Tags:        row.Tags,
			Rating:      row.Rating,
			SoldCount:   row.SoldCount,
			Stock:       row.Stock,
			PublishedAt: publishedAt,
		})
	}
	return listings, nil
}

// ExistsBySlug reports whether any product uses the slug
func (r *GormProductRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&catalog.Product{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByFarmer counts a farmer's products, optionally restricted to statuses
func (r *GormProductRepository) CountByFarmer(ctx context.Context, farmerID uuid.UUID, statuses ...catalog.ProductStatus) (int64, error) {
	query := conn(ctx, r.db).Model(&catalog.Product{}).Where("farmer_id = ?", farmerID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save writes the product and reconciles its variants
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return transact(ctx, r.db, func(tx *gorm.DB) error {
		if err := saveAggregate(tx, product); err != nil {
			return err
		}

		keep := make([]uuid.UUID, 0, len(product.Variants))
		for i := range product.Variants {
			product.Variants[i].ProductID = product.ID
			keep = append(keep, product.Variants[i].ID)
		}
		stale := tx.Where("product_id = ?", product.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&catalog.ProductVariant{}).Error; err != nil {
			return err
		}
		if len(product.Variants) == 0 {
			return nil
		}
		return translate(tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"sku", "name", "price", "active", "updated_at"}),
		}).Create(&product.Variants).Error)
	})
}

// Delete removes a product and its variants
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return transact(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&catalog.ProductVariant{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&catalog.Product{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// GormCategoryRepository implements catalog.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	var category catalog.Category
	if err := conn(ctx, r.db).First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	category.MarkPersisted()
	return &category, nil
}

// FindAll lists categories in display order
func (r *GormCategoryRepository) FindAll(ctx context.Context) ([]catalog.Category, error) {
	var categories []catalog.Category
	if err := conn(ctx, r.db).Order("sort_order ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	markLoaded(categories)
	return categories, nil
}

// ExistsBySlug reports whether another category uses the slug
func (r *GormCategoryRepository) ExistsBySlug(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	query := conn(ctx, r.db).Model(&catalog.Category{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasProducts reports whether any product references the category
func (r *GormCategoryRepository) HasProducts(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&catalog.Product{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return saveAggregate(conn(ctx, r.db), category)
}

// Delete removes a category
func (r *GormCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&catalog.Category{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure the repositories implement their domain interfaces
var (
	_ catalog.ProductRepository  = (*GormProductRepository)(nil)
	_ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
)
