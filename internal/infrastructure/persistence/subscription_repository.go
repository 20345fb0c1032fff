package persistence

import (
	"context"
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSubscriptionRepository implements subscription.SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// FindByID finds a subscription by ID
func (r *GormSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	var s subscription.Subscription
	if err := conn(ctx, r.db).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	s.MarkPersisted()
	return &s, nil
}

// FindByFarmer finds the subscription of a farmer
func (r *GormSubscriptionRepository) FindByFarmer(ctx context.Context, farmerID uuid.UUID) (*subscription.Subscription, error) {
	var s subscription.Subscription
	if err := conn(ctx, r.db).Where("farmer_id = ?", farmerID).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	s.MarkPersisted()
	return &s, nil
}

// FindAll lists subscriptions matching the filter
func (r *GormSubscriptionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]subscription.Subscription, int64, error) {
	filter = filter.Normalize()
	query := conn(ctx, r.db).Model(&subscription.Subscription{})
	if status, ok := filter.Filters[subscription.FilterStatus]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if plan, ok := filter.Filters[subscription.FilterPlan]; ok && plan != "" {
		query = query.Where("plan_code = ?", plan)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subs []subscription.Subscription
	if err := applyPaging(query, filter, SubscriptionSortFields, "created_at").Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	markLoaded(subs)
	return subs, total, nil
}

// FindDue returns active or cancelled subscriptions whose period ended before now
func (r *GormSubscriptionRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]subscription.Subscription, error) {
	if limit < 1 {
		limit = 100
	}
	var subs []subscription.Subscription
	if err := conn(ctx, r.db).
		Where("status IN ? AND current_period_end <= ?",
			[]subscription.Status{subscription.StatusActive, subscription.StatusCancelled}, now).
		Order("current_period_end ASC").
		Limit(limit).
		Find(&subs).Error; err != nil {
		return nil, err
	}
	markLoaded(subs)
	return subs, nil
}

// CountActiveByPlan counts active subscriptions per plan
func (r *GormSubscriptionRepository) CountActiveByPlan(ctx context.Context) (map[subscription.PlanCode]int64, error) {
	var rows []struct {
		PlanCode subscription.PlanCode
		Count    int64
	}
	if err := conn(ctx, r.db).Model(&subscription.Subscription{}).
		Select("plan_code, COUNT(*) AS count").
		Where("status = ?", subscription.StatusActive).
		Group("plan_code").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[subscription.PlanCode]int64, len(rows))
	for _, row := range rows {
		counts[row.PlanCode] = row.Count
	}
	return counts, nil
}

// Save creates or updates a subscription
func (r *GormSubscriptionRepository) Save(ctx context.Context, s *subscription.Subscription) error {
	return saveAggregate(conn(ctx, r.db), s)
}

// Ensure GormSubscriptionRepository implements SubscriptionRepository
var _ subscription.SubscriptionRepository = (*GormSubscriptionRepository)(nil)
