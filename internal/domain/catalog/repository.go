package catalog

import (
	"context"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository defines persistence for products and their variants
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	// FindByVariantID loads the product owning the variant
	FindByVariantID(ctx context.Context, variantID uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	// FindByFarmer supports filters "status" and a free-text search
	FindByFarmer(ctx context.Context, farmerID uuid.UUID, filter shared.Filter) ([]Product, int64, error)
	// ListActiveListings returns every active product joined with its available stock
	ListActiveListings(ctx context.Context) ([]Listing, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	CountByFarmer(ctx context.Context, farmerID uuid.UUID, statuses ...ProductStatus) (int64, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryRepository defines persistence for categories
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindAll(ctx context.Context) ([]Category, error)
	ExistsBySlug(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	// HasProducts reports whether any product references the category
	HasProducts(ctx context.Context, id uuid.UUID) (bool, error)
	Save(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}
