package order

import (
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeOrder is the aggregate type for order events
const AggregateTypeOrder = "Order"

// Order event types
const (
	EventTypeOrderPlaced        = "OrderPlaced"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
	EventTypeOrderCancelled     = "OrderCancelled"
)

// OrderPlacedEvent is published after checkout commits an order
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	FarmerID    uuid.UUID       `json:"farmer_id"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	ItemCount   int             `json:"item_count"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID, o.BuyerID),
		OrderNumber:     o.OrderNumber,
		BuyerID:         o.BuyerID,
		FarmerID:        o.FarmerID,
		Total:           o.Total,
		Currency:        string(o.Currency),
		ItemCount:       o.ItemCount(),
	}
}

// OrderStatusChangedEvent is published on confirm, ship and deliver
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string    `json:"order_number"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	OldStatus   Status    `json:"old_status"`
	NewStatus   Status    `json:"new_status"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, old Status) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID, o.FarmerID),
		OrderNumber:     o.OrderNumber,
		BuyerID:         o.BuyerID,
		OldStatus:       old,
		NewStatus:       o.Status,
	}
}

// CancelledLine is a line whose stock must go back on the shelf
type CancelledLine struct {
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
}

// OrderCancelledEvent is published when an order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	FarmerID    uuid.UUID       `json:"farmer_id"`
	OldStatus   Status          `json:"old_status"`
	Reason      string          `json:"reason"`
	Lines       []CancelledLine `json:"lines"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order, old Status) *OrderCancelledEvent {
	lines := make([]CancelledLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, CancelledLine{VariantID: it.VariantID, Quantity: it.Quantity})
	}
	actor := o.BuyerID
	if o.CancelledBy != nil {
		actor = *o.CancelledBy
	}
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID, actor),
		OrderNumber:     o.OrderNumber,
		BuyerID:         o.BuyerID,
		FarmerID:        o.FarmerID,
		OldStatus:       old,
		Reason:          o.CancelReason,
		Lines:           lines,
	}
}
