package catalog

import (
	"errors"
	"testing"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %T", err)
	assert.Equal(t, code, de.Code)
}

func newTestProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct(uuid.New(), "Heirloom Tomatoes", "KG", decimal.RequireFromString("4.50"), "usd")
	require.NoError(t, err)
	return p
}

func TestNewProduct(t *testing.T) {
	p := newTestProduct(t)
	assert.Equal(t, "heirloom-tomatoes", p.Slug)
	assert.Equal(t, "kg", p.Unit)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, ProductStatusDraft, p.Status)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "Standard", p.Variants[0].Name)
	assert.True(t, p.Variants[0].Price.Equal(p.Price))
	assert.NoError(t, ValidateSKU(p.Variants[0].SKU))
	assert.Equal(t, p.ID, p.Variants[0].ProductID)
	require.Len(t, p.GetDomainEvents(), 1)
}

func TestNewProduct_Validation(t *testing.T) {
	_, err := NewProduct(uuid.Nil, "Eggs", "dozen", decimal.NewFromInt(3), "USD")
	assertCode(t, err, "INVALID_FARMER")

	_, err = NewProduct(uuid.New(), "", "dozen", decimal.NewFromInt(3), "USD")
	assertCode(t, err, "INVALID_PRODUCT_NAME")

	_, err = NewProduct(uuid.New(), "Eggs", "", decimal.NewFromInt(3), "USD")
	assertCode(t, err, "INVALID_UNIT")

	_, err = NewProduct(uuid.New(), "Eggs", "dozen", decimal.NewFromInt(-1), "USD")
	assertCode(t, err, "INVALID_PRICE")

	_, err = NewProduct(uuid.New(), "Eggs", "dozen", decimal.RequireFromString("1.005"), "USD")
	assertCode(t, err, "INVALID_PRICE")
}

func TestProduct_PublishLifecycle(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.Publish())
	assert.Equal(t, ProductStatusActive, p.Status)
	assert.NotNil(t, p.PublishedAt)
	assertCode(t, p.Publish(), "ALREADY_ACTIVE")

	require.NoError(t, p.Archive())
	assertCode(t, p.Publish(), "PRODUCT_ARCHIVED")
	name := "New name"
	assertCode(t, p.Update(ProductUpdate{Name: &name}), "PRODUCT_ARCHIVED")

	require.NoError(t, p.Restore())
	assert.Equal(t, ProductStatusDraft, p.Status)
}

func TestProduct_PublishRequiresPositivePrice(t *testing.T) {
	p, err := NewProduct(uuid.New(), "Free Compost", "bag", decimal.Zero, "USD")
	require.NoError(t, err)
	assertCode(t, p.Publish(), "INVALID_PRICE")
}

func TestProduct_Variants(t *testing.T) {
	p := newTestProduct(t)

	v, err := p.AddVariant(" box-5kg ", "5 kg box", decimal.RequireFromString("20"))
	require.NoError(t, err)
	assert.Equal(t, "BOX-5KG", v.SKU)
	require.Len(t, p.Variants, 2)

	_, err = p.AddVariant("BOX-5KG", "dup", decimal.NewFromInt(1))
	assertCode(t, err, "DUPLICATE_SKU")

	_, err = p.AddVariant("bad sku!", "x", decimal.NewFromInt(1))
	assertCode(t, err, "INVALID_SKU")

	price := decimal.RequireFromString("18.50")
	require.NoError(t, p.UpdateVariant(v.ID, nil, &price, nil))
	assert.True(t, p.FindVariant(v.ID).Price.Equal(price))

	require.NoError(t, p.RemoveVariant(v.ID))
	assert.Nil(t, p.FindVariant(v.ID))
	assertCode(t, p.RemoveVariant(p.Variants[0].ID), "LAST_VARIANT")
	assertCode(t, p.RemoveVariant(uuid.New()), "VARIANT_NOT_FOUND")
}

func TestProduct_LastActiveVariantGuard(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.Publish())
	inactive := false
	assertCode(t, p.UpdateVariant(p.Variants[0].ID, nil, nil, &inactive), "LAST_ACTIVE_VARIANT")
}

func TestProduct_IsPurchasable(t *testing.T) {
	p := newTestProduct(t)
	vid := p.Variants[0].ID
	assert.False(t, p.IsPurchasable(vid))
	require.NoError(t, p.Publish())
	assert.True(t, p.IsPurchasable(vid))
	assert.False(t, p.IsPurchasable(uuid.New()))
}

func TestProduct_UpdateTags(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.Update(ProductUpdate{Tags: []string{" Organic ", "local", "organic", ""}}))
	assert.Equal(t, []string{"organic", "local"}, p.TagList())

	many := make([]string, 11)
	for i := range many {
		many[i] = uuid.NewString()[:8]
	}
	assertCode(t, p.Update(ProductUpdate{Tags: many}), "TOO_MANY_TAGS")
}

func TestProduct_CanDelete(t *testing.T) {
	p := newTestProduct(t)
	assert.NoError(t, p.CanDelete(false))
	assertCode(t, p.CanDelete(true), "PRODUCT_HAS_ORDERS")
	require.NoError(t, p.Publish())
	assertCode(t, p.CanDelete(false), "PRODUCT_ACTIVE")
}

func TestCategory(t *testing.T) {
	c, err := NewCategory(" Fresh Vegetables ", "Leafy and root", 1)
	require.NoError(t, err)
	assert.Equal(t, "fresh-vegetables", c.Slug)

	require.NoError(t, c.Update("Dairy & Eggs", "", 2))
	assert.Equal(t, "dairy-eggs", c.Slug)

	_, err = NewCategory("!!!", "", 0)
	assertCode(t, err, "INVALID_CATEGORY_NAME")
}
