package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stockFixture struct {
	stock     *MockStockRepository
	products  *MockProductRepository
	publisher *recordingPublisher
	svc       *StockService
	farmerID  uuid.UUID
	product   *catalog.Product
	item      *inventory.StockItem
}

func newStockFixture(t *testing.T, quantity, threshold int) *stockFixture {
	t.Helper()
	farmerID := uuid.New()
	product, err := catalog.NewProduct(farmerID, "Blueberries", "punnet", decimal.RequireFromString("4.00"), "USD")
	require.NoError(t, err)
	item, err := inventory.NewStockItem(farmerID, product.ID, product.Variants[0].ID)
	require.NoError(t, err)
	item.Quantity = quantity
	item.LowStockThreshold = threshold
	item.MarkPersisted()

	f := &stockFixture{
		stock:     new(MockStockRepository),
		products:  new(MockProductRepository),
		publisher: &recordingPublisher{},
		farmerID:  farmerID,
		product:   product,
		item:      item,
	}
	f.svc = NewStockService(f.stock, f.products, f.publisher, zap.NewNop())
	f.stock.On("FindByVariant", mock.Anything, item.VariantID).Return(item, nil)
	f.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	return f
}

func TestStockService_Restock(t *testing.T) {
	f := newStockFixture(t, 3, 0)
	f.stock.On("Save", mock.Anything, f.item, mock.MatchedBy(func(ms []*inventory.StockMovement) bool {
		return len(ms) == 1 && ms[0].Type == inventory.MovementTypeRestock &&
			ms[0].BalanceBefore == 3 && ms[0].BalanceAfter == 13 && ms[0].Quantity == 10
	})).Return(nil)

	resp, err := f.svc.Restock(context.Background(), f.farmerID, f.item.VariantID, RestockRequest{Quantity: 10, Note: "harvest"})
	require.NoError(t, err)
	assert.Equal(t, 13, resp.Quantity)
	assert.Equal(t, "Blueberries", resp.ProductName)
	assert.Equal(t, "Standard", resp.VariantName)
	assert.Equal(t, []string{inventory.EventTypeStockChanged}, f.publisher.Types())
	f.stock.AssertExpectations(t)
}

func TestStockService_AdjustBelowThresholdRaisesAlert(t *testing.T) {
	f := newStockFixture(t, 20, 5)
	f.stock.On("Save", mock.Anything, f.item, mock.Anything).Return(nil)

	resp, err := f.svc.Adjust(context.Background(), f.farmerID, f.item.VariantID, AdjustStockRequest{Quantity: 2, Reason: "spoilage"})
	require.NoError(t, err)
	assert.True(t, resp.IsLow)
	assert.Equal(t, []string{inventory.EventTypeStockChanged, inventory.EventTypeStockLow}, f.publisher.Types())
}

func TestStockService_AdjustRequiresReason(t *testing.T) {
	f := newStockFixture(t, 4, 0)
	_, err := f.svc.Adjust(context.Background(), f.farmerID, f.item.VariantID, AdjustStockRequest{Quantity: 2, Reason: "  "})
	assert.ErrorIs(t, err, shared.NewDomainError("INVALID_REASON", ""))
	f.stock.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestStockService_ConcurrencyConflictSurfaces(t *testing.T) {
	f := newStockFixture(t, 4, 0)
	f.stock.On("Save", mock.Anything, f.item, mock.Anything).Return(shared.ErrConcurrencyConflict)

	_, err := f.svc.Restock(context.Background(), f.farmerID, f.item.VariantID, RestockRequest{Quantity: 1})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Empty(t, f.publisher.Types())
}

func TestStockService_OtherFarmersStockIsHidden(t *testing.T) {
	f := newStockFixture(t, 4, 0)
	_, err := f.svc.Restock(context.Background(), uuid.New(), f.item.VariantID, RestockRequest{Quantity: 1})
	assert.ErrorIs(t, err, shared.NewDomainError("STOCK_ITEM_NOT_FOUND", ""))
}

func TestStockService_SetThresholdAboveQuantityAlerts(t *testing.T) {
	f := newStockFixture(t, 4, 0)
	f.stock.On("Save", mock.Anything, f.item, mock.Anything).Return(nil)

	resp, err := f.svc.SetLowStockThreshold(context.Background(), f.farmerID, f.item.VariantID, SetThresholdRequest{Threshold: 10})
	require.NoError(t, err)
	assert.True(t, resp.IsLow)
	assert.Equal(t, []string{inventory.EventTypeStockLow}, f.publisher.Types())
}

func TestStockService_ListStock(t *testing.T) {
	f := newStockFixture(t, 4, 5)
	f.stock.On("FindByFarmer", mock.Anything, f.farmerID, true).Return([]inventory.StockItem{*f.item}, nil)
	f.products.On("FindByIDs", mock.Anything, []uuid.UUID{f.product.ID}).Return([]catalog.Product{*f.product}, nil)

	items, err := f.svc.ListStock(context.Background(), f.farmerID, ListStockRequest{LowStockOnly: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Blueberries", items[0].ProductName)
	assert.True(t, items[0].IsLow)
}

func TestStockService_ListMovements(t *testing.T) {
	f := newStockFixture(t, 0, 0)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	movement := inventory.StockMovement{ID: uuid.New(), Type: inventory.MovementTypeSale, Quantity: -2, BalanceBefore: 5, BalanceAfter: 3}

	f.stock.On("ListMovements", mock.Anything, f.farmerID, mock.MatchedBy(func(mf inventory.MovementFilter) bool {
		return mf.Type != nil && *mf.Type == inventory.MovementTypeSale && mf.Page == 1 && mf.PageSize == 20
	})).Return([]inventory.StockMovement{movement}, int64(1), nil)

	page, err := f.svc.ListMovements(context.Background(), f.farmerID, ListMovementsRequest{Type: "sale", From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, -2, page.Items[0].Quantity)

	_, err = f.svc.ListMovements(context.Background(), f.farmerID, ListMovementsRequest{From: &to, To: &from})
	assert.ErrorIs(t, err, shared.NewDomainError("INVALID_DATE_RANGE", ""))
}
