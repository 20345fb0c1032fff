package catalog

import (
	"time"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=5000"`
	Unit        string          `json:"unit" binding:"required,min=1,max=20"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	CategoryID  *uuid.UUID      `json:"category_id"`
	Organic     bool            `json:"organic"`
	ImageURL    string          `json:"image_url" binding:"omitempty,url,max=500"`
	Tags        []string        `json:"tags" binding:"max=10,dive,max=30"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description   *string          `json:"description" binding:"omitempty,max=5000"`
	Unit          *string          `json:"unit" binding:"omitempty,min=1,max=20"`
	Price         *decimal.Decimal `json:"price"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	ClearCategory bool             `json:"clear_category"`
	Organic       *bool            `json:"organic"`
	ImageURL      *string          `json:"image_url" binding:"omitempty,max=500"`
	Tags          []string         `json:"tags" binding:"omitempty,max=10,dive,max=30"`
}

// AddVariantRequest adds a sellable option to a product
type AddVariantRequest struct {
	SKU   string          `json:"sku" binding:"required,sku"`
	Name  string          `json:"name" binding:"required,min=1,max=100"`
	Price decimal.Decimal `json:"price" binding:"required"`
}

// UpdateVariantRequest changes a variant; nil fields are left untouched
type UpdateVariantRequest struct {
	Name   *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Price  *decimal.Decimal `json:"price"`
	Active *bool            `json:"active"`
}

// ListMyProductsRequest filters a farmer's product list
type ListMyProductsRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=draft active archived"`
	Search   string `form:"search" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// BrowseRequest holds the storefront query string
type BrowseRequest struct {
	Search     string           `form:"search" binding:"max=100"`
	CategoryID *uuid.UUID       `form:"-"`
	FarmerID   *uuid.UUID       `form:"-"`
	MinPrice   *decimal.Decimal `form:"min_price"`
	MaxPrice   *decimal.Decimal `form:"max_price"`
	Organic    *bool            `form:"organic"`
	InStock    bool             `form:"in_stock"`
	Sort       string           `form:"sort"`
	Page       int              `form:"page" binding:"omitempty,min=1"`
	PageSize   int              `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// VariantResponse represents a product variant in API responses
type VariantResponse struct {
	ID     uuid.UUID       `json:"id"`
	SKU    string          `json:"sku"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Active bool            `json:"active"`
	Stock  int             `json:"stock"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID         `json:"id"`
	FarmerID    uuid.UUID         `json:"farmer_id"`
	CategoryID  *uuid.UUID        `json:"category_id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	Unit        string            `json:"unit"`
	Price       decimal.Decimal   `json:"price"`
	Currency    string            `json:"currency"`
	Organic     bool              `json:"organic"`
	Status      string            `json:"status"`
	ImageURL    string            `json:"image_url"`
	Tags        []string          `json:"tags"`
	Rating      decimal.Decimal   `json:"rating"`
	SoldCount   int               `json:"sold_count"`
	Variants    []VariantResponse `json:"variants"`
	PublishedAt *time.Time        `json:"published_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Version     int               `json:"version"`
}

// CategoryRequest creates or updates a category
type CategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=1000"`
	SortOrder   int    `json:"sort_order"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sort_order"`
}

func toProductResponse(p *catalog.Product, stock map[uuid.UUID]int) ProductResponse {
	variants := make([]VariantResponse, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, VariantResponse{
			ID:     v.ID,
			SKU:    v.SKU,
			Name:   v.Name,
			Price:  v.Price,
			Active: v.Active,
			Stock:  stock[v.ID],
		})
	}
	return ProductResponse{
		ID:          p.ID,
		FarmerID:    p.FarmerID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Unit:        p.Unit,
		Price:       p.Price,
		Currency:    p.Currency,
		Organic:     p.Organic,
		Status:      string(p.Status),
		ImageURL:    p.ImageURL,
		Tags:        p.TagList(),
		Rating:      p.Rating,
		SoldCount:   p.SoldCount,
		Variants:    variants,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
}

func toCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		SortOrder:   c.SortOrder,
	}
}
