package catalog

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the listing status of a product
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

// IsValid reports whether s is a known status
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusActive, ProductStatusArchived:
		return true
	}
	return false
}

const (
	maxTags        = 10
	maxVariants    = 20
	defaultVariant = "Standard"
	maxNameLength  = 200
	maxPriceDigits = 10
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{1,39}$`)

// ProductVariant is a sellable option of a product (size, pack, grade)
type ProductVariant struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_variant_product_sku,priority:1"`
	SKU       string          `gorm:"type:varchar(40);not null;uniqueIndex:idx_variant_product_sku,priority:2"`
	Name      string          `gorm:"type:varchar(100);not null"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Active    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (ProductVariant) TableName() string {
	return "product_variants"
}

// Product is a farmer's listing on the marketplace
type Product struct {
	shared.BaseAggregateRoot
	FarmerID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	CategoryID  *uuid.UUID       `gorm:"type:uuid;index"`
	Name        string           `gorm:"type:varchar(200);not null"`
	Slug        string           `gorm:"type:varchar(220);not null;uniqueIndex"`
	Description string           `gorm:"type:text"`
	Unit        string           `gorm:"type:varchar(20);not null"`
	Price       decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Currency    string           `gorm:"type:varchar(3);not null"`
	Organic     bool             `gorm:"not null;default:false"`
	Status      ProductStatus    `gorm:"type:varchar(20);not null;index"`
	ImageURL    string           `gorm:"type:varchar(500)"`
	Tags        string           `gorm:"type:varchar(500)"`
	Rating      decimal.Decimal  `gorm:"type:decimal(3,2);not null;default:0"`
	RatingCount int              `gorm:"not null;default:0"`
	SoldCount   int              `gorm:"not null;default:0"`
	PublishedAt *time.Time
	Variants    []ProductVariant `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a draft product with a default variant priced at price
func NewProduct(farmerID uuid.UUID, name, unit string, price decimal.Decimal, currency string) (*Product, error) {
	if farmerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FARMER", "Farmer ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	unit = strings.ToLower(strings.TrimSpace(unit))
	if err := validateUnit(unit); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	slug := shared.Slugify(name)
	if slug == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name must contain letters or digits")
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FarmerID:          farmerID,
		Name:              name,
		Slug:              slug,
		Unit:              unit,
		Price:             price,
		Currency:          strings.ToUpper(currency),
		Status:            ProductStatusDraft,
		Rating:            decimal.Zero,
	}
	sku := defaultSKU(slug, p.ID)
	p.Variants = []ProductVariant{newVariant(p.ID, sku, defaultVariant, price)}

	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// ProductUpdate carries optional changes; nil fields are left untouched
type ProductUpdate struct {
	Name          *string
	Description   *string
	Unit          *string
	Price         *decimal.Decimal
	Organic       *bool
	ImageURL      *string
	Tags          []string
	CategoryID    *uuid.UUID
	ClearCategory bool
}

// Update applies listing changes. Renaming keeps the existing slug.
func (p *Product) Update(u ProductUpdate) error {
	if p.Status == ProductStatusArchived {
		return shared.NewDomainError("PRODUCT_ARCHIVED", "Archived products cannot be edited")
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if err := validateProductName(name); err != nil {
			return err
		}
		p.Name = name
	}
	if u.Description != nil {
		p.Description = strings.TrimSpace(*u.Description)
	}
	if u.Unit != nil {
		unit := strings.ToLower(strings.TrimSpace(*u.Unit))
		if err := validateUnit(unit); err != nil {
			return err
		}
		p.Unit = unit
	}
	if u.Price != nil {
		if err := validatePrice(*u.Price); err != nil {
			return err
		}
		p.Price = *u.Price
	}
	if u.Organic != nil {
		p.Organic = *u.Organic
	}
	if u.ImageURL != nil {
		img := strings.TrimSpace(*u.ImageURL)
		if len(img) > 500 {
			return shared.NewDomainError("INVALID_IMAGE_URL", "Image URL cannot exceed 500 characters")
		}
		p.ImageURL = img
	}
	if u.Tags != nil {
		tags, err := normalizeTags(u.Tags)
		if err != nil {
			return err
		}
		p.Tags = tags
	}
	if u.ClearCategory {
		p.CategoryID = nil
	} else if u.CategoryID != nil {
		id := *u.CategoryID
		p.CategoryID = &id
	}
	p.IncrementVersion()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

// TagList returns the tags as a slice
func (p *Product) TagList() []string {
	if p.Tags == "" {
		return []string{}
	}
	return strings.Split(p.Tags, ",")
}

// SetSlug overrides the generated slug, used to resolve collisions
func (p *Product) SetSlug(slug string) error {
	slug = shared.Slugify(slug)
	if slug == "" {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot be empty")
	}
	p.Slug = slug
	return nil
}

// AddVariant adds a new option with its own SKU and price
func (p *Product) AddVariant(sku, name string, price decimal.Decimal) (*ProductVariant, error) {
	if p.Status == ProductStatusArchived {
		return nil, shared.NewDomainError("PRODUCT_ARCHIVED", "Archived products cannot be edited")
	}
	if len(p.Variants) >= maxVariants {
		return nil, shared.NewDomainError("TOO_MANY_VARIANTS", fmt.Sprintf("A product cannot have more than %d variants", maxVariants))
	}
	sku = NormalizeSKU(sku)
	if err := ValidateSKU(sku); err != nil {
		return nil, err
	}
	if p.FindVariantBySKU(sku) != nil {
		return nil, shared.NewDomainError("DUPLICATE_SKU", fmt.Sprintf("SKU %s already exists on this product", sku))
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_VARIANT_NAME", "Variant name must be 1-100 characters")
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	p.Variants = append(p.Variants, newVariant(p.ID, sku, name, price))
	p.IncrementVersion()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return &p.Variants[len(p.Variants)-1], nil
}

// UpdateVariant changes a variant's name, price or availability
func (p *Product) UpdateVariant(variantID uuid.UUID, name *string, price *decimal.Decimal, active *bool) error {
	v := p.FindVariant(variantID)
	if v == nil {
		return shared.NewDomainError("VARIANT_NOT_FOUND", "Variant not found")
	}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" || len(n) > 100 {
			return shared.NewDomainError("INVALID_VARIANT_NAME", "Variant name must be 1-100 characters")
		}
		v.Name = n
	}
	if price != nil {
		if err := validatePrice(*price); err != nil {
			return err
		}
		v.Price = *price
	}
	if active != nil {
		if !*active && p.Status == ProductStatusActive && p.activeVariantCount() == 1 && v.Active {
			return shared.NewDomainError("LAST_ACTIVE_VARIANT", "A published product needs at least one active variant")
		}
		v.Active = *active
	}
	v.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

// RemoveVariant deletes a variant; the last variant cannot be removed
func (p *Product) RemoveVariant(variantID uuid.UUID) error {
	idx := -1
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return shared.NewDomainError("VARIANT_NOT_FOUND", "Variant not found")
	}
	if len(p.Variants) == 1 {
		return shared.NewDomainError("LAST_VARIANT", "A product must keep at least one variant")
	}
	if p.Status == ProductStatusActive && p.Variants[idx].Active && p.activeVariantCount() == 1 {
		return shared.NewDomainError("LAST_ACTIVE_VARIANT", "A published product needs at least one active variant")
	}
	p.Variants = append(p.Variants[:idx], p.Variants[idx+1:]...)
	p.IncrementVersion()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

// FindVariant returns the variant with the given ID, or nil
func (p *Product) FindVariant(id uuid.UUID) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// FindVariantBySKU returns the variant with the given SKU, or nil
func (p *Product) FindVariantBySKU(sku string) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].SKU == sku {
			return &p.Variants[i]
		}
	}
	return nil
}

// Publish lists the product on the storefront
func (p *Product) Publish() error {
	switch p.Status {
	case ProductStatusActive:
		return shared.NewDomainError("ALREADY_ACTIVE", "Product is already published")
	case ProductStatusArchived:
		return shared.NewDomainError("PRODUCT_ARCHIVED", "Restore the product before publishing it")
	}
	if !p.Price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Price must be positive to publish")
	}
	if p.activeVariantCount() == 0 {
		return shared.NewDomainError("NO_ACTIVE_VARIANT", "Product needs at least one active variant")
	}
	now := time.Now()
	p.Status = ProductStatusActive
	p.PublishedAt = &now
	p.IncrementVersion()
	p.AddDomainEvent(NewProductStatusChangedEvent(p, ProductStatusDraft))
	return nil
}

// Unpublish moves an active product back to draft
func (p *Product) Unpublish() error {
	if p.Status != ProductStatusActive {
		return shared.NewDomainError("NOT_ACTIVE", "Only published products can be unpublished")
	}
	p.Status = ProductStatusDraft
	p.IncrementVersion()
	p.AddDomainEvent(NewProductStatusChangedEvent(p, ProductStatusActive))
	return nil
}

// Archive removes the product from sale permanently
func (p *Product) Archive() error {
	if p.Status == ProductStatusArchived {
		return shared.NewDomainError("ALREADY_ARCHIVED", "Product is already archived")
	}
	old := p.Status
	p.Status = ProductStatusArchived
	p.IncrementVersion()
	p.AddDomainEvent(NewProductStatusChangedEvent(p, old))
	return nil
}

// Restore moves an archived product back to draft
func (p *Product) Restore() error {
	if p.Status != ProductStatusArchived {
		return shared.NewDomainError("NOT_ARCHIVED", "Only archived products can be restored")
	}
	p.Status = ProductStatusDraft
	p.IncrementVersion()
	p.AddDomainEvent(NewProductStatusChangedEvent(p, ProductStatusArchived))
	return nil
}

// CanDelete reports whether the product may be hard-deleted
func (p *Product) CanDelete(hasOrders bool) error {
	if hasOrders {
		return shared.NewDomainError("PRODUCT_HAS_ORDERS", "Products with orders can only be archived")
	}
	if p.Status == ProductStatusActive {
		return shared.NewDomainError("PRODUCT_ACTIVE", "Unpublish the product before deleting it")
	}
	return nil
}

// IsPurchasable reports whether buyers can add the variant to a cart
func (p *Product) IsPurchasable(variantID uuid.UUID) bool {
	if p.Status != ProductStatusActive {
		return false
	}
	v := p.FindVariant(variantID)
	return v != nil && v.Active
}

// RecordSale increments the popularity counter
func (p *Product) RecordSale(quantity int) {
	if quantity <= 0 {
		return
	}
	p.SoldCount += quantity
	p.IncrementVersion()
	p.AddDomainEvent(NewProductSoldEvent(p, quantity))
}

func (p *Product) activeVariantCount() int {
	n := 0
	for i := range p.Variants {
		if p.Variants[i].Active {
			n++
		}
	}
	return n
}

func newVariant(productID uuid.UUID, sku, name string, price decimal.Decimal) ProductVariant {
	now := time.Now()
	return ProductVariant{
		ID:        uuid.New(),
		ProductID: productID,
		SKU:       sku,
		Name:      name,
		Price:     price,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func defaultSKU(slug string, id uuid.UUID) string {
	base := strings.ToUpper(slug)
	if len(base) > 30 {
		base = strings.TrimRight(base[:30], "-")
	}
	return base + "-" + strings.ToUpper(id.String()[:6])
}

// NormalizeSKU uppercases and trims a SKU
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// ValidateSKU checks the SKU format
func ValidateSKU(sku string) error {
	if !skuPattern.MatchString(sku) {
		return shared.NewDomainError("INVALID_SKU", "SKU must be 2-40 characters of A-Z, 0-9 and hyphens")
	}
	return nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if len(name) > maxNameLength {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validateUnit(unit string) error {
	if unit == "" {
		return shared.NewDomainError("INVALID_UNIT", "Unit cannot be empty")
	}
	if len(unit) > 20 {
		return shared.NewDomainError("INVALID_UNIT", "Unit cannot exceed 20 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if price.Exponent() < -2 && !price.Equal(price.Round(2)) {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot have more than 2 decimal places")
	}
	if len(price.Truncate(0).String()) > maxPriceDigits {
		return shared.NewDomainError("INVALID_PRICE", "Price is too large")
	}
	return nil
}

func normalizeTags(tags []string) (string, error) {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		t = strings.ReplaceAll(t, ",", " ")
		if t == "" || seen[t] {
			continue
		}
		if len(t) > 40 {
			return "", shared.NewDomainError("INVALID_TAG", "Tags cannot exceed 40 characters")
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) > maxTags {
		return "", shared.NewDomainError("TOO_MANY_TAGS", fmt.Sprintf("A product cannot have more than %d tags", maxTags))
	}
	return strings.Join(out, ","), nil
}
