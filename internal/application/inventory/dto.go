package inventory

import (
	"time"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/google/uuid"
)

// RestockRequest records received goods
type RestockRequest struct {
	Quantity int    `json:"quantity" binding:"required,min=1,max=1000000"`
	Note     string `json:"note" binding:"max=255"`
}

// AdjustStockRequest sets the counted quantity
type AdjustStockRequest struct {
	Quantity int    `json:"quantity" binding:"min=0,max=1000000"`
	Reason   string `json:"reason" binding:"required,min=1,max=255"`
}

// SetThresholdRequest changes the low-stock alert level
type SetThresholdRequest struct {
	Threshold int `json:"threshold" binding:"min=0,max=1000000"`
}

// ListStockRequest filters the stock overview
type ListStockRequest struct {
	LowStockOnly bool `form:"low_stock_only"`
}

// ListMovementsRequest filters the ledger
type ListMovementsRequest struct {
	StockItemID *uuid.UUID `form:"-"`
	ProductID   *uuid.UUID `form:"-"`
	Type        string     `form:"type" binding:"omitempty,oneof=restock sale adjustment return cancellation"`
	From        *time.Time `form:"from" time_format:"2006-01-02"`
	To          *time.Time `form:"to" time_format:"2006-01-02"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// StockItemResponse represents a stock item in API responses
type StockItemResponse struct {
	ID                uuid.UUID `json:"id"`
	ProductID         uuid.UUID `json:"product_id"`
	ProductName       string    `json:"product_name"`
	VariantID         uuid.UUID `json:"variant_id"`
	VariantName       string    `json:"variant_name"`
	SKU               string    `json:"sku"`
	Quantity          int       `json:"quantity"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	IsLow             bool      `json:"is_low"`
	UpdatedAt         time.Time `json:"updated_at"`
	Version           int       `json:"version"`
}

// MovementResponse represents a ledger row in API responses
type MovementResponse struct {
	ID            uuid.UUID  `json:"id"`
	StockItemID   uuid.UUID  `json:"stock_item_id"`
	ProductID     uuid.UUID  `json:"product_id"`
	VariantID     uuid.UUID  `json:"variant_id"`
	Type          string     `json:"type"`
	Quantity      int        `json:"quantity"`
	BalanceBefore int        `json:"balance_before"`
	BalanceAfter  int        `json:"balance_after"`
	ReferenceType string     `json:"reference_type"`
	ReferenceID   string     `json:"reference_id,omitempty"`
	Note          string     `json:"note,omitempty"`
	CreatedBy     *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toStockItemResponse(item *inventory.StockItem, product *catalog.Product) StockItemResponse {
	resp := StockItemResponse{
		ID:                item.ID,
		ProductID:         item.ProductID,
		VariantID:         item.VariantID,
		Quantity:          item.Quantity,
		LowStockThreshold: item.LowStockThreshold,
		IsLow:             item.IsLow(),
		UpdatedAt:         item.UpdatedAt,
		Version:           item.Version,
	}
	if product != nil {
		resp.ProductName = product.Name
		if v := product.FindVariant(item.VariantID); v != nil {
			resp.VariantName = v.Name
			resp.SKU = v.SKU
		}
	}
	return resp
}

// ToMovementResponse converts a ledger row
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		StockItemID:   m.StockItemID,
		ProductID:     m.ProductID,
		VariantID:     m.VariantID,
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		ReferenceType: string(m.ReferenceType),
		ReferenceID:   m.ReferenceID,
		Note:          m.Note,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}
