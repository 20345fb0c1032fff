package moderation

import (
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeDispute is the aggregate type for dispute events
const AggregateTypeDispute = "Dispute"

// Dispute event types
const (
	EventTypeDisputeOpened = "DisputeOpened"
	EventTypeDisputeClosed = "DisputeClosed"
)

// DisputeOpenedEvent is published when a buyer opens a dispute
type DisputeOpenedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID     `json:"order_id"`
	OrderNumber string        `json:"order_number"`
	FarmerID    uuid.UUID     `json:"farmer_id"`
	Reason      DisputeReason `json:"reason"`
}

// NewDisputeOpenedEvent creates a new DisputeOpenedEvent
func NewDisputeOpenedEvent(d *Dispute) *DisputeOpenedEvent {
	return &DisputeOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDisputeOpened, AggregateTypeDispute, d.ID, d.BuyerID),
		OrderID:         d.OrderID,
		OrderNumber:     d.OrderNumber,
		FarmerID:        d.FarmerID,
		Reason:          d.Reason,
	}
}

// DisputeClosedEvent is published when a dispute is resolved or rejected
type DisputeClosedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string        `json:"order_number"`
	FarmerID    uuid.UUID     `json:"farmer_id"`
	Status      DisputeStatus `json:"status"`
	Resolution  string        `json:"resolution"`
}

// NewDisputeClosedEvent creates a new DisputeClosedEvent
func NewDisputeClosedEvent(d *Dispute) *DisputeClosedEvent {
	return &DisputeClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDisputeClosed, AggregateTypeDispute, d.ID, d.BuyerID),
		OrderNumber:     d.OrderNumber,
		FarmerID:        d.FarmerID,
		Status:          d.Status,
		Resolution:      d.Resolution,
	}
}
