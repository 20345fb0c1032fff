package moderation

import (
	"time"

	"github.com/farmmarket/backend/internal/domain/moderation"
	"github.com/google/uuid"
)

// OpenDisputeRequest is a buyer complaint about an order
type OpenDisputeRequest struct {
	Reason      string `json:"reason" binding:"required,oneof=not_received damaged not_as_described other"`
	Description string `json:"description" binding:"required,min=10,max=5000"`
}

// CloseDisputeRequest carries the admin's resolution text
type CloseDisputeRequest struct {
	Resolution string `json:"resolution" binding:"required,min=1,max=5000"`
}

// ListDisputesRequest filters disputes
type ListDisputesRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=open under_review resolved rejected"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SendMessageRequest sends a support or direct message
type SendMessageRequest struct {
	Kind        string     `json:"kind" binding:"required,oneof=support direct"`
	RecipientID *uuid.UUID `json:"recipient_id"`
	Subject     string     `json:"subject" binding:"required,max=200"`
	Body        string     `json:"body" binding:"required,max=10000"`
}

// InboxRequest filters a user's messages. Box "sent" lists outgoing messages.
type InboxRequest struct {
	Box      string `form:"box" binding:"omitempty,oneof=inbox sent"`
	Status   string `form:"status" binding:"omitempty,oneof=unread read archived"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListMessagesRequest filters the admin message list
type ListMessagesRequest struct {
	Kind     string `form:"kind" binding:"omitempty,oneof=support notification direct"`
	Status   string `form:"status" binding:"omitempty,oneof=unread read archived"`
	Flagged  *bool  `form:"flagged"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// DisputeResponse represents a dispute
type DisputeResponse struct {
	ID          uuid.UUID  `json:"id"`
	OrderID     uuid.UUID  `json:"order_id"`
	OrderNumber string     `json:"order_number"`
	BuyerID     uuid.UUID  `json:"buyer_id"`
	FarmerID    uuid.UUID  `json:"farmer_id"`
	Reason      string     `json:"reason"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Resolution  string     `json:"resolution,omitempty"`
	ResolvedBy  *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// MessageResponse represents a message
type MessageResponse struct {
	ID          uuid.UUID  `json:"id"`
	SenderID    *uuid.UUID `json:"sender_id,omitempty"`
	RecipientID *uuid.UUID `json:"recipient_id,omitempty"`
	Kind        string     `json:"kind"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body"`
	Status      string     `json:"status"`
	Flagged     bool       `json:"flagged"`
	RelatedType string     `json:"related_type,omitempty"`
	RelatedID   *uuid.UUID `json:"related_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToDisputeResponse converts a dispute
func ToDisputeResponse(d *moderation.Dispute) DisputeResponse {
	return DisputeResponse{
		ID:          d.ID,
		OrderID:     d.OrderID,
		OrderNumber: d.OrderNumber,
		BuyerID:     d.BuyerID,
		FarmerID:    d.FarmerID,
		Reason:      string(d.Reason),
		Description: d.Description,
		Status:      string(d.Status),
		Resolution:  d.Resolution,
		ResolvedBy:  d.ResolvedBy,
		ResolvedAt:  d.ResolvedAt,
		CreatedAt:   d.CreatedAt,
	}
}

// ToMessageResponse converts a message
func ToMessageResponse(m *moderation.Message) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Kind:        string(m.Kind),
		Subject:     m.Subject,
		Body:        m.Body,
		Status:      string(m.Status),
		Flagged:     m.Flagged,
		RelatedType: m.RelatedType,
		RelatedID:   m.RelatedID,
		CreatedAt:   m.CreatedAt,
	}
}
