package moderation

import (
	"context"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter keys understood by the moderation repositories
const (
	FilterStatus      = "status"
	FilterKind        = "kind"
	FilterFlagged     = "flagged"
	FilterBuyerID     = "buyer_id"
	FilterFarmerID    = "farmer_id"
	FilterRecipientID = "recipient_id"
	FilterSenderID    = "sender_id"
	// FilterParticipant matches messages sent or received by a user
	FilterParticipant = "participant_id"
)

// DisputeRepository persists disputes
type DisputeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Dispute, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Dispute, int64, error)
	// HasActiveForOrder reports an open or under-review dispute on the order
	HasActiveForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	CountByStatus(ctx context.Context, status DisputeStatus) (int64, error)
	Save(ctx context.Context, d *Dispute) error
}

// MessageRepository persists messages
type MessageRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Message, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Message, int64, error)
	CountUnreadSupport(ctx context.Context) (int64, error)
	Save(ctx context.Context, m *Message) error
	Delete(ctx context.Context, id uuid.UUID) error
}
