package inventory

import (
	"fmt"
	"strings"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StockItem tracks the on-hand quantity of one product variant
type StockItem struct {
	shared.BaseAggregateRoot
	FarmerID          uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID `gorm:"type:uuid;not null;index"`
	VariantID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Quantity          int       `gorm:"not null;default:0"`
	LowStockThreshold int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (StockItem) TableName() string {
	return "stock_items"
}

// NewStockItem creates an empty stock record for a variant
func NewStockItem(farmerID, productID, variantID uuid.UUID) (*StockItem, error) {
	if farmerID == uuid.Nil || productID == uuid.Nil || variantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STOCK_ITEM", "Farmer, product and variant are required")
	}
	return &StockItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FarmerID:          farmerID,
		ProductID:         productID,
		VariantID:         variantID,
	}, nil
}

// IsLow reports whether the quantity is at or below the threshold
func (s *StockItem) IsLow() bool {
	return s.LowStockThreshold > 0 && s.Quantity <= s.LowStockThreshold
}

// Restock adds received goods
func (s *StockItem) Restock(quantity int, note string, actor *uuid.UUID) (*StockMovement, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be positive")
	}
	return s.apply(MovementTypeRestock, quantity, ReferenceTypeManual, "", note, actor)
}

// Adjust sets the on-hand quantity after a count; reason is mandatory
func (s *StockItem) Adjust(newQuantity int, reason string, actor *uuid.UUID) (*StockMovement, error) {
	if newQuantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Adjustment reason is required")
	}
	delta := newQuantity - s.Quantity
	if delta == 0 {
		return nil, shared.NewDomainError("NO_CHANGE", "Quantity is already at the requested value")
	}
	return s.apply(MovementTypeAdjustment, delta, ReferenceTypeManual, "", reason, actor)
}

// Deduct removes sold goods for an order
func (s *StockItem) Deduct(quantity int, orderRef string) (*StockMovement, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if quantity > s.Quantity {
		return nil, shared.NewDomainError(shared.ErrInsufficientStock.Code,
			fmt.Sprintf("Insufficient stock (need %d, have %d)", quantity, s.Quantity))
	}
	return s.apply(MovementTypeSale, -quantity, ReferenceTypeOrder, orderRef, "", nil)
}

// Return puts goods back after an order is cancelled or refunded
func (s *StockItem) Return(quantity int, typ MovementType, orderRef string) (*StockMovement, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if typ != MovementTypeReturn && typ != MovementTypeCancellation {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Returns must be of type return or cancellation")
	}
	return s.apply(typ, quantity, ReferenceTypeOrder, orderRef, "", nil)
}

// SetLowStockThreshold changes the alert threshold
func (s *StockItem) SetLowStockThreshold(threshold int) error {
	if threshold < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Threshold cannot be negative")
	}
	s.LowStockThreshold = threshold
	s.IncrementVersion()
	return nil
}

func (s *StockItem) apply(typ MovementType, delta int, ref ReferenceType, refID, note string, actor *uuid.UUID) (*StockMovement, error) {
	wasLow := s.IsLow()
	before := s.Quantity
	m, err := newMovement(s, typ, delta, before, ref, refID, note, actor)
	if err != nil {
		return nil, err
	}
	s.Quantity = m.BalanceAfter
	s.IncrementVersion()

	s.AddDomainEvent(NewStockChangedEvent(s, m))
	if !wasLow && s.IsLow() {
		s.AddDomainEvent(NewStockLowEvent(s))
	}
	return m, nil
}
