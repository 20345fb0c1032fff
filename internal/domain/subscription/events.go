package subscription

import (
	"github.com/farmmarket/backend/internal/domain/shared"
)

// AggregateTypeSubscription is the aggregate type for subscription events
const AggregateTypeSubscription = "Subscription"

// EventTypeSubscriptionChanged covers every plan or status change
const EventTypeSubscriptionChanged = "SubscriptionChanged"

// SubscriptionChangedEvent records a plan or status change
type SubscriptionChangedEvent struct {
	shared.BaseDomainEvent
	OldPlan   PlanCode `json:"old_plan,omitempty"`
	NewPlan   PlanCode `json:"new_plan"`
	OldStatus Status   `json:"old_status,omitempty"`
	NewStatus Status   `json:"new_status"`
}

// NewSubscriptionChangedEvent creates a new SubscriptionChangedEvent
func NewSubscriptionChangedEvent(s *Subscription, oldPlan PlanCode, oldStatus Status) *SubscriptionChangedEvent {
	return &SubscriptionChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionChanged, AggregateTypeSubscription, s.ID, s.FarmerID),
		OldPlan:         oldPlan,
		NewPlan:         s.PlanCode,
		OldStatus:       oldStatus,
		NewStatus:       s.Status,
	}
}
