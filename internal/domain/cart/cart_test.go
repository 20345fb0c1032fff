package cart

import (
	"errors"
	"testing"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(farmer uuid.UUID, price string) LineInput {
	return LineInput{
		ProductID:   uuid.New(),
		VariantID:   uuid.New(),
		FarmerID:    farmer,
		ProductName: "Tomatoes",
		VariantName: "Standard",
		UnitPrice:   decimal.RequireFromString(price),
		Currency:    valueobject.USD,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	assert.Equal(t, code, de.Code)
}

func TestCart_AddItem(t *testing.T) {
	c := NewCart(uuid.New(), "")
	assert.Equal(t, valueobject.USD, c.Currency)
	in := line(uuid.New(), "2.50")

	item, err := c.AddItem(in, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity, "quantity below one clamps to one")

	item, err = c.AddItem(in, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, item.Quantity)
	assert.Len(t, c.Items, 1)
	assert.Equal(t, 4, c.ItemCount())
	assert.Equal(t, "10.00 USD", c.Subtotal().String())
}

func TestCart_AddItem_Rejections(t *testing.T) {
	c := NewCart(uuid.New(), valueobject.USD)

	eur := line(uuid.New(), "1.00")
	eur.Currency = valueobject.EUR
	_, err := c.AddItem(eur, 1)
	assertCode(t, err, "CURRENCY_MISMATCH")

	free := line(uuid.New(), "0")
	_, err = c.AddItem(free, 1)
	assertCode(t, err, "INVALID_PRICE")

	_, err = c.AddItem(line(uuid.New(), "1.00"), MaxLineQuantity+1)
	assertCode(t, err, "QUANTITY_TOO_LARGE")
}

func TestCart_UpdateAndRemove(t *testing.T) {
	c := NewCart(uuid.New(), valueobject.USD)
	item, err := c.AddItem(line(uuid.New(), "1.00"), 2)
	require.NoError(t, err)
	id := item.ID

	require.NoError(t, c.UpdateItemQuantity(id, 5))
	assert.Equal(t, 5, c.FindItem(id).Quantity)

	assertCode(t, c.UpdateItemQuantity(id, -1), "INVALID_QUANTITY")
	assertCode(t, c.UpdateItemQuantity(uuid.New(), 1), "ITEM_NOT_FOUND")

	require.NoError(t, c.UpdateItemQuantity(id, 0))
	assert.True(t, c.IsEmpty())
	assertCode(t, c.RemoveItem(id), "ITEM_NOT_FOUND")
}

func TestCart_GroupByFarmer(t *testing.T) {
	c := NewCart(uuid.New(), valueobject.USD)
	f1, f2 := uuid.New(), uuid.New()
	_, _ = c.AddItem(line(f1, "1.00"), 1)
	_, _ = c.AddItem(line(f2, "2.00"), 1)
	_, _ = c.AddItem(line(f1, "3.00"), 1)

	order, groups := c.GroupByFarmer()
	assert.Equal(t, []uuid.UUID{f1, f2}, order)
	assert.Len(t, groups[f1], 2)
	assert.Len(t, groups[f2], 1)
	assert.Len(t, c.VariantIDs(), 3)

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Equal(t, "0.00 USD", c.Subtotal().String())
}
