package handler

import (
	"net/http"
	"testing"

	inventoryapp "github.com/farmmarket/backend/internal/application/inventory"
	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockHandler_RestockAndAdjust(t *testing.T) {
	m := setupMarket(t)
	_, farmer := m.signUp(t, identity.RoleFarmer, "Hill Farm")
	kale := m.listProduct(t, farmer, "Kale", "3.50", true, 0)
	path := "/farmer/stock/" + kale.Variants[0].ID.String()

	w := m.send(http.MethodPost, path+"/restock", map[string]any{"quantity": 12, "note": "morning harvest"}, farmer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	item := decodeData[inventoryapp.StockItemResponse](t, w)
	assert.Equal(t, 12, item.Quantity)
	assert.Equal(t, "Kale", item.ProductName)

	w = m.send(http.MethodPost, path+"/adjust", map[string]any{"quantity": 9, "reason": "three bunches wilted"}, farmer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 9, decodeData[inventoryapp.StockItemResponse](t, w).Quantity)

	// the storefront sees the new level straight away
	w = m.send(http.MethodGet, "/catalog/products?in_stock=true", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	listings := decodeData[[]ListingResponse](t, w)
	require.Len(t, listings, 1)
	assert.Equal(t, 9, listings[0].Stock)
}

func TestStockHandler_Errors(t *testing.T) {
	m := setupMarket(t)
	_, farmer := m.signUp(t, identity.RoleFarmer, "Hill Farm")
	_, neighbour := m.signUp(t, identity.RoleFarmer, "Next Door Farm")
	kale := m.listProduct(t, farmer, "Kale", "3.50", true, 0)
	path := "/farmer/stock/" + kale.Variants[0].ID.String()

	tests := []struct {
		name       string
		path       string
		body       map[string]any
		token      string
		wantStatus int
		wantCode   string
	}{
		{"zero restock", path + "/restock", map[string]any{"quantity": 0}, farmer, http.StatusBadRequest, dto.ErrCodeValidation},
		{"adjust needs a reason", path + "/adjust", map[string]any{"quantity": 3}, farmer, http.StatusBadRequest, dto.ErrCodeValidation},
		{"someone else's stock", path + "/restock", map[string]any{"quantity": 5}, neighbour, http.StatusNotFound, "ERR_STOCK_ITEM_NOT_FOUND"},
		{"unknown variant", "/farmer/stock/" + uuid.NewString() + "/restock", map[string]any{"quantity": 5}, farmer, http.StatusNotFound, "ERR_STOCK_ITEM_NOT_FOUND"},
		{"bad variant id", "/farmer/stock/kale/restock", map[string]any{"quantity": 5}, farmer, http.StatusBadRequest, dto.ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := m.send(http.MethodPost, tt.path, tt.body, tt.token)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, w).Error.Code)
		})
	}

	assert.Equal(t, 0, stockOnHand(t, m, farmer))
}
