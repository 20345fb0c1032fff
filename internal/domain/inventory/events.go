package inventory

import (
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeStockItem is the aggregate type for stock events
const AggregateTypeStockItem = "StockItem"

// Stock event types
const (
	EventTypeStockChanged = "StockChanged"
	EventTypeStockLow     = "StockLow"
)

// StockChangedEvent is published for every ledger movement
type StockChangedEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID    `json:"product_id"`
	VariantID    uuid.UUID    `json:"variant_id"`
	MovementType MovementType `json:"movement_type"`
	Quantity     int          `json:"quantity"`
	BalanceAfter int          `json:"balance_after"`
}

// NewStockChangedEvent creates a new StockChangedEvent
func NewStockChangedEvent(s *StockItem, m *StockMovement) *StockChangedEvent {
	return &StockChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockChanged, AggregateTypeStockItem, s.ID, s.FarmerID),
		ProductID:       s.ProductID,
		VariantID:       s.VariantID,
		MovementType:    m.Type,
		Quantity:        m.Quantity,
		BalanceAfter:    m.BalanceAfter,
	}
}

// StockLowEvent is published when quantity drops to the threshold
type StockLowEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
	Threshold int       `json:"threshold"`
}

// NewStockLowEvent creates a new StockLowEvent
func NewStockLowEvent(s *StockItem) *StockLowEvent {
	return &StockLowEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockLow, AggregateTypeStockItem, s.ID, s.FarmerID),
		ProductID:       s.ProductID,
		VariantID:       s.VariantID,
		Quantity:        s.Quantity,
		Threshold:       s.LowStockThreshold,
	}
}
