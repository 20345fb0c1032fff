package catalog

import (
	"strings"

	"github.com/farmmarket/backend/internal/domain/shared"
)

// Category groups products on the storefront (vegetables, dairy, ...)
type Category struct {
	shared.BaseAggregateRoot
	Name        string `gorm:"type:varchar(100);not null"`
	Slug        string `gorm:"type:varchar(120);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	SortOrder   int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new category
func NewCategory(name, description string, sortOrder int) (*Category, error) {
	name = strings.TrimSpace(name)
	slug, err := categorySlug(name)
	if err != nil {
		return nil, err
	}
	return &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Description:       strings.TrimSpace(description),
		SortOrder:         sortOrder,
	}, nil
}

// Update renames the category; the slug follows the name
func (c *Category) Update(name, description string, sortOrder int) error {
	name = strings.TrimSpace(name)
	slug, err := categorySlug(name)
	if err != nil {
		return err
	}
	c.Name = name
	c.Slug = slug
	c.Description = strings.TrimSpace(description)
	c.SortOrder = sortOrder
	c.IncrementVersion()
	return nil
}

func categorySlug(name string) (string, error) {
	if name == "" {
		return "", shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return "", shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name cannot exceed 100 characters")
	}
	slug := shared.Slugify(name)
	if slug == "" {
		return "", shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name must contain letters or digits")
	}
	return slug, nil
}
