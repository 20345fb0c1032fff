package subscription

import (
	"time"

	"github.com/farmmarket/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscribeRequest starts or restarts a subscription
type SubscribeRequest struct {
	Plan string `json:"plan" binding:"required,oneof=free grower pro"`
}

// ChangePlanRequest switches an active subscription to another plan
type ChangePlanRequest struct {
	Plan string `json:"plan" binding:"required,oneof=free grower pro"`
}

// SuspendRequest carries the admin's reason
type SuspendRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=255"`
}

// ListSubscriptionsRequest filters the admin subscription list
type ListSubscriptionsRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=active cancelled expired suspended"`
	Plan     string `form:"plan" binding:"omitempty,oneof=free grower pro"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PlanResponse represents a catalog plan
type PlanResponse struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	MaxProducts  int             `json:"max_products"`
	Features     []string        `json:"features"`
}

// SubscriptionResponse represents a farmer's subscription. Implicit is true
// for farmers who never subscribed and run on the free plan.
type SubscriptionResponse struct {
	ID                 *uuid.UUID   `json:"id,omitempty"`
	FarmerID           uuid.UUID    `json:"farmer_id"`
	Plan               PlanResponse `json:"plan"`
	EffectivePlan      string       `json:"effective_plan"`
	Status             string       `json:"status"`
	CurrentPeriodStart *time.Time   `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time   `json:"current_period_end,omitempty"`
	AutoRenew          bool         `json:"auto_renew"`
	CancelledAt        *time.Time   `json:"cancelled_at,omitempty"`
	SuspendedReason    string       `json:"suspended_reason,omitempty"`
	Implicit           bool         `json:"implicit"`
	Version            int          `json:"version"`
}

func toPlanResponse(p subscription.Plan) PlanResponse {
	features := make([]string, len(p.Features))
	copy(features, p.Features)
	return PlanResponse{
		Code:         string(p.Code),
		Name:         p.Name,
		MonthlyPrice: p.MonthlyPrice,
		MaxProducts:  p.MaxProducts,
		Features:     features,
	}
}

func toSubscriptionResponse(s *subscription.Subscription, now time.Time) SubscriptionResponse {
	id := s.ID
	start, end := s.CurrentPeriodStart, s.CurrentPeriodEnd
	return SubscriptionResponse{
		ID:                 &id,
		FarmerID:           s.FarmerID,
		Plan:               toPlanResponse(s.Plan()),
		EffectivePlan:      string(s.EffectivePlan(now).Code),
		Status:             string(s.Status),
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
		AutoRenew:          s.AutoRenew,
		CancelledAt:        s.CancelledAt,
		SuspendedReason:    s.SuspendedReason,
		Version:            s.Version,
	}
}

func implicitFreeResponse(farmerID uuid.UUID) SubscriptionResponse {
	free := subscription.FreePlan()
	return SubscriptionResponse{
		FarmerID:      farmerID,
		Plan:          toPlanResponse(free),
		EffectivePlan: string(free.Code),
		Status:        string(subscription.StatusActive),
		Implicit:      true,
	}
}
