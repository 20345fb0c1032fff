package moderation

import (
	"fmt"
	"strings"
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DisputeReason classifies a buyer complaint
type DisputeReason string

const (
	ReasonNotReceived    DisputeReason = "not_received"
	ReasonDamaged        DisputeReason = "damaged"
	ReasonNotAsDescribed DisputeReason = "not_as_described"
	ReasonOther          DisputeReason = "other"
)

// IsValid checks if the reason is known
func (r DisputeReason) IsValid() bool {
	switch r {
	case ReasonNotReceived, ReasonDamaged, ReasonNotAsDescribed, ReasonOther:
		return true
	}
	return false
}

// DisputeStatus is the moderation state of a dispute
type DisputeStatus string

const (
	DisputeStatusOpen        DisputeStatus = "open"
	DisputeStatusUnderReview DisputeStatus = "under_review"
	DisputeStatusResolved    DisputeStatus = "resolved"
	DisputeStatusRejected    DisputeStatus = "rejected"
)

// IsValid checks if the status is known
func (s DisputeStatus) IsValid() bool {
	switch s {
	case DisputeStatusOpen, DisputeStatusUnderReview, DisputeStatusResolved, DisputeStatusRejected:
		return true
	}
	return false
}

// IsClosed returns true for resolved and rejected disputes
func (s DisputeStatus) IsClosed() bool {
	return s == DisputeStatusResolved || s == DisputeStatusRejected
}

// CanTransitionTo checks if the status can transition to the target status
func (s DisputeStatus) CanTransitionTo(target DisputeStatus) bool {
	switch s {
	case DisputeStatusOpen:
		return target == DisputeStatusUnderReview || target == DisputeStatusResolved || target == DisputeStatusRejected
	case DisputeStatusUnderReview:
		return target == DisputeStatusResolved || target == DisputeStatusRejected
	}
	return false
}

// Dispute is a buyer complaint about a shipped order
type Dispute struct {
	shared.BaseAggregateRoot
	OrderID     uuid.UUID     `gorm:"type:uuid;not null;index"`
	OrderNumber string        `gorm:"type:varchar(32);not null"`
	BuyerID     uuid.UUID     `gorm:"type:uuid;not null;index"`
	FarmerID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	Reason      DisputeReason `gorm:"type:varchar(30);not null"`
	Description string        `gorm:"type:text;not null"`
	Status      DisputeStatus `gorm:"type:varchar(20);not null;index"`
	Resolution  string        `gorm:"type:text"`
	ResolvedBy  *uuid.UUID    `gorm:"type:uuid"`
	ResolvedAt  *time.Time
}

// TableName returns the table name for GORM
func (Dispute) TableName() string {
	return "disputes"
}

// DisputedOrder is the order information a dispute needs
type DisputedOrder struct {
	ID          uuid.UUID
	OrderNumber string
	BuyerID     uuid.UUID
	FarmerID    uuid.UUID
}

// NewDispute opens a dispute. Order eligibility is checked by the caller.
func NewDispute(o DisputedOrder, reason DisputeReason, description string) (*Dispute, error) {
	if !reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_REASON", fmt.Sprintf("Unknown dispute reason %q", reason))
	}
	description = strings.TrimSpace(description)
	if len(description) < 10 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description must be at least 10 characters")
	}
	if len(description) > 5000 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 5000 characters")
	}
	d := &Dispute{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           o.ID,
		OrderNumber:       o.OrderNumber,
		BuyerID:           o.BuyerID,
		FarmerID:          o.FarmerID,
		Reason:            reason,
		Description:       description,
		Status:            DisputeStatusOpen,
	}
	d.AddDomainEvent(NewDisputeOpenedEvent(d))
	return d, nil
}

// Review marks the dispute as being looked at
func (d *Dispute) Review() error {
	if !d.Status.CanTransitionTo(DisputeStatusUnderReview) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot review a %s dispute", d.Status))
	}
	d.Status = DisputeStatusUnderReview
	d.IncrementVersion()
	return nil
}

// Resolve closes the dispute in the buyer's favour
func (d *Dispute) Resolve(adminID uuid.UUID, resolution string) error {
	return d.close(DisputeStatusResolved, adminID, resolution)
}

// Reject closes the dispute without action
func (d *Dispute) Reject(adminID uuid.UUID, resolution string) error {
	return d.close(DisputeStatusRejected, adminID, resolution)
}

func (d *Dispute) close(target DisputeStatus, adminID uuid.UUID, resolution string) error {
	if !d.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot close a %s dispute", d.Status))
	}
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return shared.NewDomainError("INVALID_RESOLUTION", "Resolution is required")
	}
	now := time.Now()
	d.Status = target
	d.Resolution = resolution
	d.ResolvedBy = &adminID
	d.ResolvedAt = &now
	d.IncrementVersion()
	d.AddDomainEvent(NewDisputeClosedEvent(d))
	return nil
}
