package subscription

import (
	"context"
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter keys understood by SubscriptionRepository
const (
	FilterStatus = "status"
	FilterPlan   = "plan"
)

// SubscriptionRepository persists farmer subscriptions
type SubscriptionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	FindByFarmer(ctx context.Context, farmerID uuid.UUID) (*Subscription, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Subscription, int64, error)
	// FindDue returns active or cancelled subscriptions whose period ended before now
	FindDue(ctx context.Context, now time.Time, limit int) ([]Subscription, error)
	CountActiveByPlan(ctx context.Context) (map[PlanCode]int64, error)
	Save(ctx context.Context, s *Subscription) error
}
