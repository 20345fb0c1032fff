package inventory

import (
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MovementType classifies a stock ledger entry
type MovementType string

const (
	MovementTypeRestock      MovementType = "restock"
	MovementTypeSale         MovementType = "sale"
	MovementTypeAdjustment   MovementType = "adjustment"
	MovementTypeReturn       MovementType = "return"
	MovementTypeCancellation MovementType = "cancellation"
)

// IsValid returns true if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeRestock, MovementTypeSale, MovementTypeAdjustment, MovementTypeReturn, MovementTypeCancellation:
		return true
	}
	return false
}

// ReferenceType names the document a movement originates from
type ReferenceType string

const (
	ReferenceTypeOrder  ReferenceType = "order"
	ReferenceTypeManual ReferenceType = "manual"
)

// StockMovement is an immutable ledger row. Corrections are new rows,
// never edits. Quantity is signed; BalanceAfter = BalanceBefore + Quantity.
type StockMovement struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey"`
	StockItemID   uuid.UUID     `gorm:"type:uuid;not null;index"`
	FarmerID      uuid.UUID     `gorm:"type:uuid;not null;index:idx_movement_farmer_time,priority:1"`
	ProductID     uuid.UUID     `gorm:"type:uuid;not null;index"`
	VariantID     uuid.UUID     `gorm:"type:uuid;not null"`
	Type          MovementType  `gorm:"type:varchar(20);not null;index"`
	Quantity      int           `gorm:"not null"`
	BalanceBefore int           `gorm:"not null"`
	BalanceAfter  int           `gorm:"not null"`
	ReferenceType ReferenceType `gorm:"type:varchar(20);not null"`
	ReferenceID   string        `gorm:"type:varchar(64)"`
	Note          string        `gorm:"type:varchar(255)"`
	CreatedBy     *uuid.UUID    `gorm:"type:uuid"`
	CreatedAt     time.Time     `gorm:"not null;index:idx_movement_farmer_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

func newMovement(item *StockItem, typ MovementType, delta int, before int, ref ReferenceType, refID, note string, actor *uuid.UUID) (*StockMovement, error) {
	if !typ.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if delta == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}
	return &StockMovement{
		ID:            uuid.New(),
		StockItemID:   item.ID,
		FarmerID:      item.FarmerID,
		ProductID:     item.ProductID,
		VariantID:     item.VariantID,
		Type:          typ,
		Quantity:      delta,
		BalanceBefore: before,
		BalanceAfter:  before + delta,
		ReferenceType: ref,
		ReferenceID:   refID,
		Note:          note,
		CreatedBy:     actor,
		CreatedAt:     time.Now(),
	}, nil
}

// MovementFilter narrows a ledger query
type MovementFilter struct {
	StockItemID *uuid.UUID
	ProductID   *uuid.UUID
	Type        *MovementType
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
}
