package subscription

import (
	"fmt"
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Status represents the subscription state
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
	StatusSuspended Status = "suspended"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCancelled, StatusExpired, StatusSuspended:
		return true
	}
	return false
}

// BillingPeriod is the length of one subscription period
const BillingPeriod = 30 * 24 * time.Hour

// Subscription binds a farmer to a plan for a period
type Subscription struct {
	shared.BaseAggregateRoot
	FarmerID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	PlanCode           PlanCode  `gorm:"type:varchar(20);not null;index"`
	Status             Status    `gorm:"type:varchar(20);not null;index"`
	CurrentPeriodStart time.Time `gorm:"not null"`
	CurrentPeriodEnd   time.Time `gorm:"not null;index"`
	AutoRenew          bool      `gorm:"not null;default:true"`
	CancelledAt        *time.Time
	SuspendedReason    string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}

// NewSubscription starts a farmer on a plan from now
func NewSubscription(farmerID uuid.UUID, code PlanCode, now time.Time) (*Subscription, error) {
	if farmerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FARMER", "Farmer is required")
	}
	if _, ok := FindPlan(code); !ok {
		return nil, shared.NewDomainError("INVALID_PLAN", fmt.Sprintf("Unknown plan %q", code))
	}
	s := &Subscription{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		FarmerID:           farmerID,
		PlanCode:           code,
		Status:             StatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(BillingPeriod),
		AutoRenew:          true,
	}
	s.AddDomainEvent(NewSubscriptionChangedEvent(s, "", ""))
	return s, nil
}

// Plan returns the plan definition
func (s *Subscription) Plan() Plan {
	if p, ok := FindPlan(s.PlanCode); ok {
		return p
	}
	return FreePlan()
}

// IsEntitled reports whether the plan limits currently apply
func (s *Subscription) IsEntitled(now time.Time) bool {
	switch s.Status {
	case StatusActive:
		return true
	case StatusCancelled:
		return now.Before(s.CurrentPeriodEnd)
	}
	return false
}

// EffectivePlan is the plan that governs limits right now
func (s *Subscription) EffectivePlan(now time.Time) Plan {
	if s.IsEntitled(now) {
		return s.Plan()
	}
	return FreePlan()
}

// Resubscribe restarts an expired or cancelled subscription on a plan
func (s *Subscription) Resubscribe(code PlanCode, now time.Time) error {
	if s.Status == StatusSuspended {
		return shared.NewDomainError("SUBSCRIPTION_SUSPENDED", "Subscription is suspended")
	}
	if s.Status == StatusActive {
		return shared.NewDomainError("ALREADY_SUBSCRIBED", "Subscription is already active")
	}
	if _, ok := FindPlan(code); !ok {
		return shared.NewDomainError("INVALID_PLAN", fmt.Sprintf("Unknown plan %q", code))
	}
	oldPlan, oldStatus := s.PlanCode, s.Status
	s.PlanCode = code
	s.Status = StatusActive
	s.AutoRenew = true
	s.CancelledAt = nil
	s.CurrentPeriodStart = now
	s.CurrentPeriodEnd = now.Add(BillingPeriod)
	s.IncrementVersion()
	s.AddDomainEvent(NewSubscriptionChangedEvent(s, oldPlan, oldStatus))
	return nil
}

// ChangePlan switches plan. activeProducts is checked against the new limit.
func (s *Subscription) ChangePlan(code PlanCode, activeProducts int64) error {
	if s.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot change plan of a %s subscription", s.Status))
	}
	if code == s.PlanCode {
		return shared.NewDomainError("SAME_PLAN", "Subscription is already on this plan")
	}
	plan, ok := FindPlan(code)
	if !ok {
		return shared.NewDomainError("INVALID_PLAN", fmt.Sprintf("Unknown plan %q", code))
	}
	if !plan.AllowsProducts(activeProducts) {
		return shared.NewDomainError("PLAN_LIMIT_EXCEEDED",
			fmt.Sprintf("Plan %s allows %d products but %d are active", plan.Name, plan.MaxProducts, activeProducts))
	}
	old := s.PlanCode
	s.PlanCode = code
	s.IncrementVersion()
	s.AddDomainEvent(NewSubscriptionChangedEvent(s, old, s.Status))
	return nil
}

// Cancel turns off renewal; the plan stays usable until period end
func (s *Subscription) Cancel(now time.Time) error {
	if s.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel a %s subscription", s.Status))
	}
	s.Status = StatusCancelled
	s.AutoRenew = false
	s.CancelledAt = &now
	s.IncrementVersion()
	s.AddDomainEvent(NewSubscriptionChangedEvent(s, s.PlanCode, StatusActive))
	return nil
}

// Suspend is an admin action that removes plan benefits
func (s *Subscription) Suspend(reason string) error {
	if s.Status == StatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Subscription is already suspended")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Suspension reason is required")
	}
	old := s.Status
	s.Status = StatusSuspended
	s.SuspendedReason = reason
	s.IncrementVersion()
	s.AddDomainEvent(NewSubscriptionChangedEvent(s, s.PlanCode, old))
	return nil
}

// Reinstate lifts a suspension
func (s *Subscription) Reinstate(now time.Time) error {
	if s.Status != StatusSuspended {
		return shared.NewDomainError("NOT_SUSPENDED", "Subscription is not suspended")
	}
	s.SuspendedReason = ""
	if now.Before(s.CurrentPeriodEnd) {
		s.Status = StatusActive
	} else {
		s.Status = StatusExpired
	}
	s.IncrementVersion()
	s.AddDomainEvent(NewSubscriptionChangedEvent(s, s.PlanCode, StatusSuspended))
	return nil
}

// IsDue reports whether the period has ended and a sweep should act
func (s *Subscription) IsDue(now time.Time) bool {
	return (s.Status == StatusActive || s.Status == StatusCancelled) && !now.Before(s.CurrentPeriodEnd)
}

// RollOver renews auto-renewing subscriptions and expires the rest.
// It returns true when the subscription was renewed.
func (s *Subscription) RollOver(now time.Time) (bool, error) {
	if !s.IsDue(now) {
		return false, shared.NewDomainError("NOT_DUE", "Subscription period has not ended")
	}
	old := s.Status
	if s.Status == StatusActive && s.AutoRenew {
		for !now.Before(s.CurrentPeriodEnd) {
			s.CurrentPeriodStart = s.CurrentPeriodEnd
			s.CurrentPeriodEnd = s.CurrentPeriodEnd.Add(BillingPeriod)
		}
		s.IncrementVersion()
		s.AddDomainEvent(NewSubscriptionChangedEvent(s, s.PlanCode, old))
		return true, nil
	}
	s.Status = StatusExpired
	s.AutoRenew = false
	s.IncrementVersion()
	s.AddDomainEvent(NewSubscriptionChangedEvent(s, s.PlanCode, old))
	return false, nil
}
