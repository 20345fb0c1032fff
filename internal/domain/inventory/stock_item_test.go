package inventory

import (
	"errors"
	"testing"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(t *testing.T) *StockItem {
	t.Helper()
	item, err := NewStockItem(uuid.New(), uuid.New(), uuid.New())
	require.NoError(t, err)
	return item
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	assert.Equal(t, code, de.Code)
}

func TestNewStockItem(t *testing.T) {
	_, err := NewStockItem(uuid.Nil, uuid.New(), uuid.New())
	assertCode(t, err, "INVALID_STOCK_ITEM")

	item := newTestItem(t)
	assert.Equal(t, 0, item.Quantity)
	assert.False(t, item.IsLow())
}

func TestStockItem_Restock(t *testing.T) {
	item := newTestItem(t)
	actor := uuid.New()

	m, err := item.Restock(10, "harvest", &actor)
	require.NoError(t, err)
	assert.Equal(t, 10, item.Quantity)
	assert.Equal(t, MovementTypeRestock, m.Type)
	assert.Equal(t, 0, m.BalanceBefore)
	assert.Equal(t, 10, m.BalanceAfter)
	assert.Equal(t, ReferenceTypeManual, m.ReferenceType)
	assert.Equal(t, item.ID, m.StockItemID)
	assert.Equal(t, &actor, m.CreatedBy)

	_, err = item.Restock(0, "", nil)
	assertCode(t, err, "INVALID_QUANTITY")
}

func TestStockItem_Adjust(t *testing.T) {
	item := newTestItem(t)
	_, _ = item.Restock(10, "", nil)

	_, err := item.Adjust(5, " ", nil)
	assertCode(t, err, "INVALID_REASON")

	_, err = item.Adjust(-1, "count", nil)
	assertCode(t, err, "INVALID_QUANTITY")

	_, err = item.Adjust(10, "count", nil)
	assertCode(t, err, "NO_CHANGE")

	m, err := item.Adjust(7, "spoiled", nil)
	require.NoError(t, err)
	assert.Equal(t, -3, m.Quantity)
	assert.Equal(t, 10, m.BalanceBefore)
	assert.Equal(t, 7, m.BalanceAfter)
	assert.Equal(t, "spoiled", m.Note)
}

func TestStockItem_Deduct(t *testing.T) {
	item := newTestItem(t)
	_, _ = item.Restock(3, "", nil)

	_, err := item.Deduct(5, "ORD-1")
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "need 5, have 3")
	assert.Equal(t, 3, item.Quantity)

	m, err := item.Deduct(2, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, MovementTypeSale, m.Type)
	assert.Equal(t, -2, m.Quantity)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, ReferenceTypeOrder, m.ReferenceType)
	assert.Equal(t, "ORD-1", m.ReferenceID)
}

func TestStockItem_Return(t *testing.T) {
	item := newTestItem(t)

	_, err := item.Return(2, MovementTypeSale, "ORD-1")
	assertCode(t, err, "INVALID_MOVEMENT_TYPE")

	m, err := item.Return(2, MovementTypeCancellation, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Quantity)
	assert.Equal(t, 2, item.Quantity)
}

func TestStockItem_LowStockEvent(t *testing.T) {
	item := newTestItem(t)
	require.NoError(t, item.SetLowStockThreshold(5))
	_, _ = item.Restock(10, "", nil)
	item.ClearDomainEvents()

	_, err := item.Deduct(4, "ORD-1")
	require.NoError(t, err)
	assert.Len(t, item.GetDomainEvents(), 1)

	_, err = item.Deduct(2, "ORD-2")
	require.NoError(t, err)
	events := item.GetDomainEvents()
	require.Len(t, events, 3)
	low, ok := events[2].(*StockLowEvent)
	require.True(t, ok)
	assert.Equal(t, 4, low.Quantity)
	assert.Equal(t, 5, low.Threshold)
	assert.Equal(t, EventTypeStockLow, low.EventType())

	// already low, no repeat alert
	_, err = item.Deduct(1, "ORD-3")
	require.NoError(t, err)
	assert.Len(t, item.GetDomainEvents(), 4)
}

func TestStockItem_SetLowStockThreshold(t *testing.T) {
	item := newTestItem(t)
	assertCode(t, item.SetLowStockThreshold(-1), "INVALID_THRESHOLD")
}

func TestStockItem_VersionIncrements(t *testing.T) {
	item := newTestItem(t)
	v := item.GetVersion()
	_, _ = item.Restock(1, "", nil)
	assert.Equal(t, v+1, item.GetVersion())
}
